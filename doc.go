// Package pyboot builds the PEP 587 startup configuration for an embedded
// CPython runtime whose configuration structure differs per release.
//
// The library never touches the runtime's structures directly. It resolves a
// per-version layout from a closed dispatch table and drives every mutation
// through the runtime's own C API, reached through a loader-supplied
// function table.
//
// # Architecture Overview
//
//	pyboot/              Root package with Ptr, Memory and Allocator primitives
//	├── archive/         TOC entries and the YAML manifest source
//	├── options/         Runtime option extraction into a Bundle
//	├── wchar/           Host-side UTF-8 to wchar_t conversion
//	├── layout/          C struct layout calculation per data model
//	├── pyconfig/        Version dispatch, config lifecycle, setters, pre-init
//	├── loader/          wazero-backed loader for python.wasm
//	└── errors/          Structured error types
//
// # Startup Sequence
//
//	VersionResolved -> PreInitialized -> ConfigAllocated ->
//	    ProgramNameSet -> HomeSet -> SearchPathsSet -> ArgvSet ->
//	    RuntimeOptionsSet -> ReadyForInit
//
// Any failure moves to Failed; the partially built configuration is torn
// down as a whole and never patched.
//
// # Quick Start
//
//	rt, err := loader.Load(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	s := &pyconfig.Startup{
//	    Version:    rt.Version(),
//	    Platform:   rt.Platform(),
//	    API:        rt,
//	    Executable: "/app/myapp",
//	    Home:       "/app",
//	    Argv:       os.Args,
//	}
//	cfg, err := pyconfig.Build(ctx, s, toc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cfg.Free(ctx)
//
// The finished configuration is handed to Py_InitializeFromConfig by the
// caller; this module only builds it.
package pyboot
