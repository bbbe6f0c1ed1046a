// Package pyconfig builds a CPython PyConfig inside a hosted runtime.
//
// PyConfig is not ABI-stable: every release from 3.8 to 3.13 (and the 3.13
// free-threaded build) lays it out differently, and Windows builds add
// fields of their own. The package keeps a closed dispatch table of
// declared field lists, one per supported Version, and computes their
// layouts for a Platform on first use. Nothing outside the table knows a
// field offset.
//
// All mutation of the structure goes through the runtime's own API
// (PyConfig_SetString, PyConfig_SetBytesString, PyConfig_SetWideStringList,
// PyConfig_Clear); integer fields are written directly at their dispatched
// offsets.
//
// # Startup sequence
//
//	cfg, err := pyconfig.Build(ctx, startup, toc)
//
// runs, in order: version lookup, option extraction, Py_PreInitialize,
// allocation, then the program name, home, module search path, argv and
// runtime option setters. Any failure releases the config and returns the
// error; a config is never returned half built.
//
// # Strings
//
// On locale platforms (WASI, Linux) byte strings are handed to the runtime,
// which decodes them with Py_DecodeLocale or PyConfig_SetBytesString. On
// wide platforms (Windows) they are converted on the host and copied into
// runtime memory. Either way every temporary string lives in runtime memory
// and is released with PyMem_RawFree.
package pyconfig
