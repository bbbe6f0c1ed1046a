package loader

import (
	"context"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/pyboot"
	"github.com/wippyai/pyboot/errors"
	"github.com/wippyai/pyboot/pyconfig"
)

const stubVersion = "3.12.4 (main, Jun  6 2024, 18:26:44) [Clang 18.1.2-wasi-sdk]"

// stubPython exports the C API surface as host functions over a separate
// linear memory, recording the arguments each call receives.
type stubPython struct {
	mem  api.Memory
	next uint32

	frees       []uint32
	srets       []uint32
	exceptionOn []uint32
	setArgs     [][3]uint32
	listArgs    [][4]uint32
	decodeSizes []uint32
}

func (p *stubPython) alloc(size uint32) uint32 {
	ptr := p.next
	p.next = (p.next + size + 7) &^ 7
	return ptr
}

func (p *stubPython) cstring(s string) uint32 {
	ptr := p.alloc(uint32(len(s) + 1))
	p.mem.Write(ptr, append([]byte(s), 0))
	return ptr
}

// writeStatus fills a PyStatus at sret. An empty message is PyStatus_Ok.
func (p *stubPython) writeStatus(sret uint32, msg string) {
	p.srets = append(p.srets, sret)
	p.mem.Write(sret, make([]byte, statusSize))
	if msg == "" {
		return
	}
	p.mem.WriteUint32Le(sret, 1)
	p.mem.WriteUint32Le(sret+statusErrMsgOff, p.cstring(msg))
}

func (p *stubPython) setString(ctx context.Context, sret, config, field, value uint32) {
	p.setArgs = append(p.setArgs, [3]uint32{config, field, value})
	if value == 0 {
		p.writeStatus(sret, "invalid string value")
		return
	}
	p.writeStatus(sret, "")
}

func newStubRuntime(t *testing.T, version string, skip string, opts ...Option) (*Runtime, *stubPython, error) {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)

	memMod, err := rt.Instantiate(ctx, memoryWASM)
	if err != nil {
		_ = rt.Close(ctx)
		t.Fatalf("failed to instantiate memory: %v", err)
	}

	stub := &stubPython{mem: memMod.ExportedMemory("memory"), next: 1024}
	versionPtr := stub.cstring(version)

	b := rt.NewHostModuleBuilder("python")
	export := func(name string, fn any) {
		if name != skip {
			b.NewFunctionBuilder().WithFunc(fn).Export(name)
		}
	}
	export(symGetVersion, func(context.Context) uint32 { return versionPtr })
	export(symRawMalloc, func(_ context.Context, size uint32) uint32 { return stub.alloc(size) })
	export(symRawCalloc, func(_ context.Context, n, size uint32) uint32 { return stub.alloc(n * size) })
	export(symRawFree, func(_ context.Context, ptr uint32) { stub.frees = append(stub.frees, ptr) })
	export(symStatusException, func(_ context.Context, st uint32) uint32 {
		stub.exceptionOn = append(stub.exceptionOn, st)
		typ, _ := stub.mem.ReadUint32Le(st)
		if typ != 0 {
			return 1
		}
		return 0
	})
	export(symConfigSetString, stub.setString)
	export(symConfigSetBytesString, stub.setString)
	export(symConfigSetWideList, func(_ context.Context, sret, config, list, length, items uint32) {
		stub.listArgs = append(stub.listArgs, [4]uint32{config, list, length, items})
		stub.writeStatus(sret, "")
	})
	export(symConfigClear, func(context.Context, uint32) {})
	export(symDecodeLocale, func(_ context.Context, arg, size uint32) uint32 {
		stub.decodeSizes = append(stub.decodeSizes, size)
		return stub.alloc(64)
	})
	export(symPreConfigInitIsolated, func(context.Context, uint32) {})
	export(symPreInitialize, func(_ context.Context, sret, preconfig uint32) {
		stub.writeStatus(sret, "")
	})

	mod, err := b.Instantiate(ctx)
	if err != nil {
		_ = rt.Close(ctx)
		t.Fatalf("failed to instantiate host module: %v", err)
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	r, err := bind(ctx, rt, mod, stub.mem, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, stub, err
	}
	t.Cleanup(func() { _ = r.Close(ctx) })
	return r, stub, nil
}

func TestBind_ResolvesVersion(t *testing.T) {
	r, _, err := newStubRuntime(t, stubVersion, "")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	want := pyconfig.Version{Major: 3, Minor: 12}
	if r.Version() != want {
		t.Errorf("Version() = %v, want %v", r.Version(), want)
	}
	if r.VersionString() != stubVersion {
		t.Errorf("VersionString() = %q, want %q", r.VersionString(), stubVersion)
	}
	if r.scratch == 0 {
		t.Error("status area was not allocated")
	}
	if r.Platform() != pyconfig.WASI {
		t.Errorf("Platform() = %v, want wasi", r.Platform().Name)
	}
}

func TestBind_FreeThreadedOverride(t *testing.T) {
	r, _, err := newStubRuntime(t, stubVersion, "", WithFreeThreaded(true))
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if !r.Version().FreeThreaded {
		t.Errorf("Version() = %v, want free-threaded", r.Version())
	}
}

func TestBind_MissingSymbol(t *testing.T) {
	_, _, err := newStubRuntime(t, stubVersion, symDecodeLocale)
	if !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if !strings.Contains(err.Error(), symDecodeLocale) {
		t.Errorf("error %q should name %s", err.Error(), symDecodeLocale)
	}
}

func TestBind_UnparsableVersion(t *testing.T) {
	_, _, err := newStubRuntime(t, "unknown", "")
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestStatusCalls_UseScratchArea(t *testing.T) {
	ctx := context.Background()
	r, stub, err := newStubRuntime(t, stubVersion, "")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	st, err := r.ConfigSetString(ctx, 100, 200, 300)
	if err != nil {
		t.Fatalf("ConfigSetString: %v", err)
	}
	if pyboot.Ptr(st) != r.scratch {
		t.Errorf("status = %d, want scratch %d", st, r.scratch)
	}
	if got := stub.srets[len(stub.srets)-1]; got != r.scratch {
		t.Errorf("sret argument = %d, want %d", got, r.scratch)
	}
	if got, want := stub.setArgs[0], [3]uint32{100, 200, 300}; got != want {
		t.Errorf("arguments = %v, want %v", got, want)
	}

	exc, err := r.StatusException(ctx, st)
	if err != nil {
		t.Fatalf("StatusException: %v", err)
	}
	if exc {
		t.Error("ok status reported as exception")
	}
	if got := stub.exceptionOn[0]; got != r.scratch {
		t.Errorf("PyStatus_Exception got %d, want status pointer %d", got, r.scratch)
	}

	st, err = r.ConfigSetWideStringList(ctx, 100, 240, 3, 512)
	if err != nil {
		t.Fatalf("ConfigSetWideStringList: %v", err)
	}
	if got, want := stub.listArgs[0], [4]uint32{100, 240, 3, 512}; got != want {
		t.Errorf("list arguments = %v, want %v", got, want)
	}
	if pyboot.Ptr(st) != r.scratch {
		t.Errorf("status = %d, want scratch %d", st, r.scratch)
	}

	st, err = r.PreInitialize(ctx, 4096)
	if err != nil {
		t.Fatalf("PreInitialize: %v", err)
	}
	if pyboot.Ptr(st) != r.scratch {
		t.Errorf("status = %d, want scratch %d", st, r.scratch)
	}
}

func TestStatusCalls_ExceptionMessage(t *testing.T) {
	ctx := context.Background()
	r, _, err := newStubRuntime(t, stubVersion, "")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	st, err := r.ConfigSetBytesString(ctx, 100, 200, 0)
	if err != nil {
		t.Fatalf("ConfigSetBytesString: %v", err)
	}

	exc, err := r.StatusException(ctx, st)
	if err != nil {
		t.Fatalf("StatusException: %v", err)
	}
	if !exc {
		t.Fatal("error status not reported as exception")
	}

	msg, err := r.StatusMessage(ctx, st)
	if err != nil {
		t.Fatalf("StatusMessage: %v", err)
	}
	if msg != "invalid string value" {
		t.Errorf("StatusMessage() = %q, want %q", msg, "invalid string value")
	}
}

func TestDecodeLocale_NoSizeOut(t *testing.T) {
	ctx := context.Background()
	r, stub, err := newStubRuntime(t, stubVersion, "")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	p, err := r.DecodeLocale(ctx, 2048)
	if err != nil {
		t.Fatalf("DecodeLocale: %v", err)
	}
	if p == 0 {
		t.Error("DecodeLocale returned NULL")
	}
	if len(stub.decodeSizes) != 1 || stub.decodeSizes[0] != 0 {
		t.Errorf("size arguments = %v, want [0]", stub.decodeSizes)
	}
}

func TestClose_FreesScratch(t *testing.T) {
	ctx := context.Background()
	r, stub, err := newStubRuntime(t, stubVersion, "")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	scratch := r.scratch
	if err := r.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(stub.frees) != 1 || stub.frees[0] != scratch {
		t.Errorf("frees = %v, want [%d]", stub.frees, scratch)
	}
}
