package pyconfig

import (
	"context"
	"fmt"

	"github.com/wippyai/pyboot/errors"
	"github.com/wippyai/pyboot/layout"
	"github.com/wippyai/pyboot/options"
	"github.com/wippyai/pyboot/wchar"
	"go.uber.org/zap"
)

const (
	// StdlibArchive is the bundled stdlib archive in the application home.
	StdlibArchive = "base_library.zip"

	// ExtensionDir holds native extension modules.
	ExtensionDir = "lib-dynload"

	// MaxPath bounds a constructed search path.
	MaxPath = 4096
)

// SetProgramName sets program_name to the executable path.
func SetProgramName(ctx context.Context, s *Startup, c *Config) error {
	return bridgeFor(s).setString(ctx, c, fieldProgramName, s.Executable)
}

// SetHome sets home to the application directory.
func SetHome(ctx context.Context, s *Startup, c *Config) error {
	return bridgeFor(s).setString(ctx, c, fieldHome, s.Home)
}

// ModuleSearchPaths returns the three search paths anchored at home, in
// resolution order.
func ModuleSearchPaths(p *Platform, home string) []string {
	return []string{
		p.JoinPath(home, StdlibArchive),
		p.JoinPath(home, ExtensionDir),
		home,
	}
}

// SetModuleSearchPaths sets module_search_paths and marks them as
// explicitly set so the runtime does not compute its own.
func SetModuleSearchPaths(ctx context.Context, s *Startup, c *Config) error {
	paths := ModuleSearchPaths(s.Platform, s.Home)
	for _, p := range paths {
		if len(p) >= MaxPath {
			return errors.New(errors.PhaseSetter, errors.KindInvalidInput).
				Field(fieldModuleSearchPaths).
				Detail("path exceeds %d bytes: %q", MaxPath, p).
				Build()
		}
	}

	b := bridgeFor(s)
	err := withWideList(ctx, b, len(paths), func(i int) (Ptr, error) {
		return b.wide(ctx, fmt.Sprintf("%s[%d]", fieldModuleSearchPaths, i), paths[i])
	}, func(items []Ptr) error {
		return setList(ctx, s, c, fieldModuleSearchPaths, items)
	})
	if err != nil {
		return err
	}
	return c.SetInt(fieldModuleSearchPathsSet, 1)
}

// SetArgv sets argv. Pre-widened arguments are copied as they are;
// otherwise each argument is converted in order and conversion stops at
// the first failure.
func SetArgv(ctx context.Context, s *Startup, c *Config) error {
	b := bridgeFor(s)

	if s.WideArgv != nil {
		return withWideList(ctx, b, len(s.WideArgv), func(i int) (Ptr, error) {
			return stage(ctx, s.API, argName(i), s.WideArgv[i])
		}, func(items []Ptr) error {
			return setList(ctx, s, c, fieldArgv, items)
		})
	}

	argv := s.arguments()
	return withWideList(ctx, b, len(argv), func(i int) (Ptr, error) {
		return b.wide(ctx, argName(i), argv[i])
	}, func(items []Ptr) error {
		return setList(ctx, s, c, fieldArgv, items)
	})
}

func argName(i int) string {
	return fmt.Sprintf("%s[%d]", fieldArgv, i)
}

// SetRuntimeOptions copies the bundle into the config and applies the
// fixed embedding policy.
func SetRuntimeOptions(ctx context.Context, s *Startup, c *Config, opts *options.Bundle) error {
	if opts == nil {
		return errors.InvalidInput(errors.PhaseSetter, "runtime options bundle is nil")
	}
	if enc := opts.Encoding(); enc != nil && uint32(enc.Size()) != s.Platform.WcharSize {
		return errors.InvalidInput(errors.PhaseSetter,
			fmt.Sprintf("bundle wchar_t size %d does not match platform size %d", enc.Size(), s.Platform.WcharSize))
	}

	ints := []struct {
		name  string
		value int32
	}{
		{fieldSiteImport, 0},
		{fieldWriteBytecode, 0},
		{fieldConfigureCStdio, 1},
		{fieldOptimizationLevel, int32(opts.Optimize)},
		{fieldBufferedStdio, boolInt(!opts.Unbuffered)},
		{fieldVerbose, int32(opts.Verbose)},
		{fieldUseHashSeed, boolInt(opts.UseHashSeed)},
		{fieldDevMode, boolInt(opts.DevMode)},
	}
	for _, f := range ints {
		if err := c.SetInt(f.name, f.value); err != nil {
			return err
		}
	}
	if err := c.SetULong(fieldHashSeed, opts.HashSeed); err != nil {
		return err
	}

	b := bridgeFor(s)
	lists := []struct {
		name  string
		flags []wchar.String
	}{
		{fieldWarnOptions, opts.WarnFlags},
		{fieldXOptions, opts.XFlags},
	}
	for _, l := range lists {
		if len(l.flags) == 0 {
			continue
		}
		err := withWideList(ctx, b, len(l.flags), func(i int) (Ptr, error) {
			return stage(ctx, s.API, fmt.Sprintf("%s[%d]", l.name, i), l.flags[i])
		}, func(items []Ptr) error {
			return setList(ctx, s, c, l.name, items)
		})
		if err != nil {
			return err
		}
	}

	return c.SetInt(fieldInstallSignalHandlers, 1)
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// withWideList converts n strings into runtime memory, stopping at the first
// failure, hands them to set, and releases every converted string on all
// paths.
func withWideList(ctx context.Context, b bridge, n int, convert func(i int) (Ptr, error), set func(items []Ptr) error) error {
	items := make([]Ptr, 0, n)
	defer func() {
		for _, p := range items {
			b.release(ctx, p)
		}
	}()

	for i := 0; i < n; i++ {
		p, err := convert(i)
		if err != nil {
			Logger().Debug("list conversion stopped",
				zap.Int("index", i),
				zap.Int("converted", len(items)),
				zap.Error(err))
			return err
		}
		items = append(items, p)
	}
	return set(items)
}

// setList calls PyConfig_SetWideStringList for a list field. The item array
// is built in runtime memory and released after the call.
func setList(ctx context.Context, s *Startup, c *Config, field string, items []Ptr) error {
	addr, err := c.field(field, layout.WideStringList)
	if err != nil {
		return err
	}

	model := s.Platform.Model
	var arr Ptr
	if len(items) > 0 {
		size := uint32(len(items)) * model.Pointer
		arr, err = s.API.Malloc(ctx, size)
		if err != nil {
			return errors.Wrap(errors.PhaseSetter, errors.KindAllocation, err, "PyMem_RawMalloc")
		}
		if arr == 0 {
			return errors.AllocationFailed(errors.PhaseSetter, field, size)
		}
		defer freeQuietly(ctx, s.API, arr)

		mem := s.API.Memory()
		for i, p := range items {
			if err := writePtr(mem, model, arr+uint32(i)*model.Pointer, p); err != nil {
				return errors.Wrap(errors.PhaseSetter, errors.KindAllocation, err, "write list item")
			}
		}
	}

	st, err := s.API.ConfigSetWideStringList(ctx, c.ptr, addr, uint32(len(items)), arr)
	return checkStatus(ctx, s.API, errors.PhaseSetter, "PyConfig_SetWideStringList", field, s.Version, st, err)
}
