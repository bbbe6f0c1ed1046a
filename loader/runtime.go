package loader

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/pyboot"
	"github.com/wippyai/pyboot/errors"
	"github.com/wippyai/pyboot/pyconfig"
)

const (
	// statusSize is sizeof(PyStatus) on wasm32:
	// {int _type; const char *func; const char *err_msg; int exitcode}.
	statusSize      = 16
	statusErrMsgOff = 8

	maxMessage = 4096
)

// Exported C API symbols. Each is looked up once at load time.
const (
	symGetVersion            = "Py_GetVersion"
	symRawMalloc             = "PyMem_RawMalloc"
	symRawCalloc             = "PyMem_RawCalloc"
	symRawFree               = "PyMem_RawFree"
	symStatusException       = "PyStatus_Exception"
	symConfigSetString       = "PyConfig_SetString"
	symConfigSetBytesString  = "PyConfig_SetBytesString"
	symConfigSetWideList     = "PyConfig_SetWideStringList"
	symConfigClear           = "PyConfig_Clear"
	symDecodeLocale          = "Py_DecodeLocale"
	symPreConfigInitIsolated = "PyPreConfig_InitIsolatedConfig"
	symPreInitialize         = "Py_PreInitialize"
)

var symbols = []string{
	symGetVersion,
	symRawMalloc,
	symRawCalloc,
	symRawFree,
	symStatusException,
	symConfigSetString,
	symConfigSetBytesString,
	symConfigSetWideList,
	symConfigClear,
	symDecodeLocale,
	symPreConfigInitIsolated,
	symPreInitialize,
}

// Runtime is a CPython wasm32-wasi module instantiated in wazero. It
// implements pyconfig.API.
type Runtime struct {
	rt            wazero.Runtime
	mod           api.Module
	mem           *memory
	fns           map[string]api.Function
	versionString string
	version       pyconfig.Version
	scratch       pyboot.Ptr
}

var _ pyconfig.API = (*Runtime)(nil)

// Load instantiates python.wasm without running its start function and
// resolves the C API. Reactor builds have _initialize called.
func Load(ctx context.Context, wasm []byte, opts ...Option) (*Runtime, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.memoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	r, err := instantiate(ctx, rt, wasm, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return r, nil
}

func instantiate(ctx context.Context, rt wazero.Runtime, wasm []byte, cfg *config) (*Runtime, error) {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, errors.Load("instantiate WASI", err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	modCfg := wazero.NewModuleConfig().
		WithName("python").
		WithStartFunctions()
	if cfg.stdout != nil {
		modCfg = modCfg.WithStdout(cfg.stdout)
	}
	if cfg.stderr != nil {
		modCfg = modCfg.WithStderr(cfg.stderr)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, errors.Load("instantiate module", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			return nil, errors.Load("call _initialize", err)
		}
	}

	mem := mod.ExportedMemory("memory")
	if mem == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "memory export", "memory")
	}

	return bind(ctx, rt, mod, mem, cfg)
}

// bind resolves the C API of mod, reads the runtime version and reserves
// the PyStatus return area. mem is the linear memory the functions use.
func bind(ctx context.Context, rt wazero.Runtime, mod api.Module, mem api.Memory, cfg *config) (*Runtime, error) {
	r := &Runtime{
		rt:  rt,
		mod: mod,
		mem: &memory{mem: mem},
		fns: make(map[string]api.Function, len(symbols)),
	}
	for _, name := range symbols {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			return nil, errors.NotFound(errors.PhaseLoad, "export", name)
		}
		r.fns[name] = fn
	}

	if err := r.resolveVersion(ctx, cfg); err != nil {
		return nil, err
	}

	scratch, err := r.Malloc(ctx, statusSize)
	if err != nil {
		return nil, errors.Load("allocate status area", err)
	}
	if scratch == 0 {
		return nil, errors.AllocationFailed(errors.PhaseLoad, "PyStatus area", statusSize)
	}
	r.scratch = scratch

	Logger().Debug("runtime loaded",
		zap.String("version", r.versionString),
		zap.Stringer("resolved", r.version),
		zap.Uint32("memory_bytes", mem.Size()))

	return r, nil
}

func (r *Runtime) resolveVersion(ctx context.Context, cfg *config) error {
	res, err := r.call(ctx, symGetVersion)
	if err != nil {
		return errors.Load("read runtime version", err)
	}
	s, err := pyboot.ReadCString(r.mem, pyboot.Ptr(res[0]), 256)
	if err != nil {
		return errors.Load("read runtime version", err)
	}

	v, err := ParseVersionString(s)
	if err != nil {
		return errors.Load("parse runtime version", err)
	}
	if cfg.freeThreaded != nil {
		v.FreeThreaded = *cfg.freeThreaded
	}
	r.versionString = s
	r.version = v
	return nil
}

// Version returns the version resolved at load time.
func (r *Runtime) Version() pyconfig.Version {
	return r.version
}

// VersionString returns the raw Py_GetVersion text.
func (r *Runtime) VersionString() string {
	return r.versionString
}

// Platform returns the ABI of a wasm32-wasi CPython.
func (r *Runtime) Platform() *pyconfig.Platform {
	return pyconfig.WASI
}

// Memory returns the guest's linear memory.
func (r *Runtime) Memory() pyboot.Memory {
	return r.mem
}

// Close releases the status area and the wazero runtime.
func (r *Runtime) Close(ctx context.Context) error {
	if r.scratch != 0 {
		_ = r.Free(ctx, r.scratch)
		r.scratch = 0
	}
	return r.rt.Close(ctx)
}

func (r *Runtime) call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	res, err := r.fns[name].Call(ctx, params...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

func (r *Runtime) callPtr(ctx context.Context, name string, params ...uint64) (pyboot.Ptr, error) {
	res, err := r.call(ctx, name, params...)
	if err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("%s returned no result", name)
	}
	return pyboot.Ptr(res[0]), nil
}

// callStatus calls a function returning PyStatus through the sret area.
func (r *Runtime) callStatus(ctx context.Context, name string, params ...uint64) (pyconfig.Status, error) {
	args := append([]uint64{uint64(r.scratch)}, params...)
	if _, err := r.call(ctx, name, args...); err != nil {
		return 0, err
	}
	return pyconfig.Status(r.scratch), nil
}

// Malloc calls PyMem_RawMalloc.
func (r *Runtime) Malloc(ctx context.Context, size uint32) (pyboot.Ptr, error) {
	return r.callPtr(ctx, symRawMalloc, uint64(size))
}

// Calloc calls PyMem_RawCalloc.
func (r *Runtime) Calloc(ctx context.Context, n, size uint32) (pyboot.Ptr, error) {
	return r.callPtr(ctx, symRawCalloc, uint64(n), uint64(size))
}

// Free calls PyMem_RawFree.
func (r *Runtime) Free(ctx context.Context, p pyboot.Ptr) error {
	_, err := r.call(ctx, symRawFree, uint64(p))
	return err
}

// StatusException passes the status by pointer, as wasm32 C passes
// aggregates.
func (r *Runtime) StatusException(ctx context.Context, st pyconfig.Status) (bool, error) {
	res, err := r.call(ctx, symStatusException, uint64(st))
	if err != nil {
		return false, err
	}
	return len(res) > 0 && uint32(res[0]) != 0, nil
}

// StatusMessage reads the err_msg field of the status area.
func (r *Runtime) StatusMessage(_ context.Context, st pyconfig.Status) (string, error) {
	p, err := r.mem.ReadU32(uint32(st) + statusErrMsgOff)
	if err != nil {
		return "", err
	}
	return pyboot.ReadCString(r.mem, p, maxMessage)
}

// ConfigSetString calls PyConfig_SetString.
func (r *Runtime) ConfigSetString(ctx context.Context, config, field, value pyboot.Ptr) (pyconfig.Status, error) {
	return r.callStatus(ctx, symConfigSetString, uint64(config), uint64(field), uint64(value))
}

// ConfigSetBytesString calls PyConfig_SetBytesString.
func (r *Runtime) ConfigSetBytesString(ctx context.Context, config, field, value pyboot.Ptr) (pyconfig.Status, error) {
	return r.callStatus(ctx, symConfigSetBytesString, uint64(config), uint64(field), uint64(value))
}

// ConfigSetWideStringList calls PyConfig_SetWideStringList.
func (r *Runtime) ConfigSetWideStringList(ctx context.Context, config, list pyboot.Ptr, length uint32, items pyboot.Ptr) (pyconfig.Status, error) {
	return r.callStatus(ctx, symConfigSetWideList, uint64(config), uint64(list), uint64(length), uint64(items))
}

// ConfigClear calls PyConfig_Clear.
func (r *Runtime) ConfigClear(ctx context.Context, config pyboot.Ptr) error {
	_, err := r.call(ctx, symConfigClear, uint64(config))
	return err
}

// DecodeLocale calls Py_DecodeLocale without a size out-parameter.
func (r *Runtime) DecodeLocale(ctx context.Context, arg pyboot.Ptr) (pyboot.Ptr, error) {
	return r.callPtr(ctx, symDecodeLocale, uint64(arg), 0)
}

// PreConfigInitIsolated calls PyPreConfig_InitIsolatedConfig.
func (r *Runtime) PreConfigInitIsolated(ctx context.Context, preconfig pyboot.Ptr) error {
	_, err := r.call(ctx, symPreConfigInitIsolated, uint64(preconfig))
	return err
}

// PreInitialize calls Py_PreInitialize.
func (r *Runtime) PreInitialize(ctx context.Context, preconfig pyboot.Ptr) (pyconfig.Status, error) {
	return r.callStatus(ctx, symPreInitialize, uint64(preconfig))
}
