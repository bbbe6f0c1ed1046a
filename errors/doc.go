// Package errors provides structured error types for pyboot.
//
// Errors are categorized by Phase (which startup step failed) and Kind
// (error category). Every kind is fatal to the startup sequence; nothing
// is retried.
//
//	allocation           runtime memory could not be obtained
//	conversion           a byte string could not be turned into a wide string
//	unsupported_version  no config layout exists for the resolved runtime
//	runtime_api          a runtime call returned an exception status
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseSetter, errors.KindRuntimeAPI).
//		Field("home").
//		Version("3.12").
//		Detail("PyConfig_SetBytesString failed").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnsupportedVersion("3.7")
//	err := errors.ConversionFailed(errors.PhaseEncode, "argv[2]", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches a kind regardless of phase.
package errors
