package pyconfig

import (
	"github.com/wippyai/pyboot/errors"
	"github.com/wippyai/pyboot/wchar"
)

// Startup carries everything the builder needs. It is shared by reference
// through every step and must not change while a build is running.
type Startup struct {
	// API is the runtime function table.
	API API

	// Platform describes the runtime's ABI.
	Platform *Platform

	// Executable becomes program_name.
	Executable string

	// Home is the application directory. It becomes home and anchors the
	// module search paths.
	Home string

	// Argv are the process arguments.
	Argv []string

	// OverrideArgv replaces Argv when non-nil.
	OverrideArgv []string

	// WideArgv holds arguments already in the runtime's wchar_t encoding.
	// When non-nil they are passed through unconverted. Only valid on
	// platforms with host-side wide strings.
	WideArgv []wchar.String

	// Version is the resolved runtime version.
	Version Version
}

// Validate checks that s is complete.
func (s *Startup) Validate() error {
	switch {
	case s == nil:
		return errors.InvalidInput(errors.PhaseLifecycle, "startup is nil")
	case s.API == nil:
		return errors.InvalidInput(errors.PhaseLifecycle, "runtime API is required")
	case s.Platform == nil:
		return errors.InvalidInput(errors.PhaseLifecycle, "platform is required")
	case s.Executable == "":
		return errors.InvalidInput(errors.PhaseLifecycle, "executable is required")
	case s.Home == "":
		return errors.InvalidInput(errors.PhaseLifecycle, "home is required")
	case s.WideArgv != nil && !s.Platform.HostWide:
		return errors.InvalidInput(errors.PhaseLifecycle, "pre-widened argv requires a wide-string platform")
	}
	return nil
}

// arguments returns the byte-string argv in effect.
func (s *Startup) arguments() []string {
	if s.OverrideArgv != nil {
		return s.OverrideArgv
	}
	return s.Argv
}
