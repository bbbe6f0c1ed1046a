package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates which startup step produced the error
type Phase string

const (
	PhaseOptions   Phase = "options"   // archive option extraction
	PhaseDispatch  Phase = "dispatch"  // version lookup
	PhaseLifecycle Phase = "lifecycle" // config allocate/free
	PhaseEncode    Phase = "encode"    // byte/wide string conversion
	PhaseSetter    Phase = "setter"    // config field population
	PhasePreInit   Phase = "preinit"   // runtime pre-initialization
	PhaseLoad      Phase = "load"      // runtime module loading
	PhaseManifest  Phase = "manifest"  // TOC manifest parsing
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation         Kind = "allocation"
	KindConversion         Kind = "conversion"
	KindUnsupportedVersion Kind = "unsupported_version"
	KindRuntimeAPI         Kind = "runtime_api"
	KindInvalidInput       Kind = "invalid_input"
	KindNotFound           Kind = "not_found"
)

// Error is the structured error type used throughout the module
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Field   string
	Version string
	Detail  string
}

// Error renders "<phase> <kind> [field] python <version>: detail: cause",
// omitting empty parts.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Phase, e.Kind)
	if e.Field != "" {
		fmt.Fprintf(&b, " [%s]", e.Field)
	}
	if e.Version != "" {
		fmt.Fprintf(&b, " python %s", e.Version)
	}
	for _, part := range []string{e.Detail, causeText(e.Cause)} {
		if part != "" {
			b.WriteString(": ")
			b.WriteString(part)
		}
	}
	return b.String()
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any *Error in err's chain has the given kind,
// regardless of phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Field sets the config field the error refers to
func (b *Builder) Field(name string) *Builder {
	b.err.Field = name
	return b
}

// Version sets the runtime version the error refers to
func (b *Builder) Version(v string) *Builder {
	b.err.Version = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the startup failure taxonomy

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, what string, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %s (%d bytes)", what, size),
	}
}

// ConversionFailed creates an encoding conversion error
func ConversionFailed(phase Phase, field string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConversion,
		Field:  field,
		Detail: "string conversion failed",
		Cause:  cause,
	}
}

// UnsupportedVersion creates a dispatch miss error
func UnsupportedVersion(version string) *Error {
	return &Error{
		Phase:   PhaseDispatch,
		Kind:    KindUnsupportedVersion,
		Version: version,
		Detail:  "no config layout for this runtime version",
	}
}

// RuntimeAPI creates an error for an exception status returned by the runtime
func RuntimeAPI(phase Phase, call, field, message string) *Error {
	detail := call + " reported an exception"
	if message != "" {
		detail += ": " + message
	}
	return &Error{
		Phase:  phase,
		Kind:   KindRuntimeAPI,
		Field:  field,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Load creates a runtime loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
