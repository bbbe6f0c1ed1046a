// Package loader instantiates a wasm32-wasi CPython in wazero and exposes its
// C API as a pyconfig.API.
//
// The module is instantiated without running _start so the interpreter is
// not started; reactor builds get _initialize. Load resolves every symbol it
// needs up front and fails naming the first missing one, then reads
// Py_GetVersion once to determine the runtime Version.
//
//	rt, err := loader.Load(ctx, wasm, loader.WithStderr(os.Stderr))
//	if err != nil {
//	    return err
//	}
//	defer rt.Close(ctx)
//
// Functions returning PyStatus use a 16-byte area in guest memory as their
// return slot. A Status stays valid until the next such call.
package loader
