package fakepy

import (
	"context"
	"errors"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/wippyai/pyboot"
	"github.com/wippyai/pyboot/pyconfig"
)

const (
	heapBase  = 16
	heapAlign = 8
	maxString = 1 << 16
)

type status struct {
	message   string
	exception bool
}

// PreConfig records the pre-config values seen by Py_PreInitialize.
type PreConfig struct {
	UTF8Mode        int32
	DevMode         int32
	ConfigureLocale int32
}

// Runtime is an in-memory stand-in for a hosted CPython. It implements
// pyconfig.API, tracks every live allocation, and can be told to fail
// specific calls.
type Runtime struct {
	mem      *Memory
	platform *pyconfig.Platform
	layout   *pyconfig.Layout
	live     map[pyboot.Ptr]uint32
	owned    map[pyboot.Ptr]map[pyboot.Ptr][]pyboot.Ptr
	statuses []status

	// Calls lists API calls in order.
	Calls []string

	// PreInits records each Py_PreInitialize call.
	PreInits []PreConfig

	// DoubleFrees counts frees of pointers that were not live.
	DoubleFrees int

	// FailCalloc makes every PyMem_RawCalloc return NULL.
	FailCalloc bool

	// FailMallocAt makes the Nth PyMem_RawMalloc (1-based) return NULL.
	FailMallocAt int

	// FailDecodeAt makes the Nth Py_DecodeLocale (1-based) return NULL.
	FailDecodeAt int

	// FailListAt makes the Nth PyConfig_SetWideStringList (1-based) report
	// an exception.
	FailListAt int

	// FailPreInit makes Py_PreInitialize report an exception.
	FailPreInit bool

	// FailStatusMessage makes reading a status message fail.
	FailStatusMessage bool

	next      pyboot.Ptr
	mallocs   int
	decodes   int
	listCalls int
}

// New returns a fake runtime of version v laid out for p.
func New(p *pyconfig.Platform, v pyconfig.Version) *Runtime {
	rt := &Runtime{
		mem:      &Memory{},
		platform: p,
		live:     make(map[pyboot.Ptr]uint32),
		owned:    make(map[pyboot.Ptr]map[pyboot.Ptr][]pyboot.Ptr),
		next:     heapBase,
	}
	if l, err := pyconfig.TableFor(p).Lookup(v); err == nil {
		rt.layout = l
	}
	return rt
}

func (r *Runtime) record(call string) {
	r.Calls = append(r.Calls, call)
}

// Live returns the number of allocations not yet freed.
func (r *Runtime) Live() int {
	return len(r.live)
}

// LivePointers returns the live allocations in address order.
func (r *Runtime) LivePointers() []pyboot.Ptr {
	return slices.Sorted(maps.Keys(r.live))
}

// Alloc allocates size bytes without recording a call, for test setup.
func (r *Runtime) Alloc(size uint32) pyboot.Ptr {
	if size == 0 {
		size = 1
	}
	p := r.next
	r.next = (r.next + size + heapAlign - 1) &^ (heapAlign - 1)
	r.mem.grow(r.next)
	r.live[p] = size
	return p
}

// CString copies s with a terminating NUL into fresh memory.
func (r *Runtime) CString(s string) pyboot.Ptr {
	p := r.Alloc(uint32(len(s) + 1))
	_ = r.mem.Write(p, append([]byte(s), 0))
	return p
}

func (r *Runtime) release(p pyboot.Ptr) {
	if p == 0 {
		return
	}
	if _, ok := r.live[p]; !ok {
		r.DoubleFrees++
		return
	}
	delete(r.live, p)
}

func (r *Runtime) newStatus(exception bool, message string) pyconfig.Status {
	r.statuses = append(r.statuses, status{exception: exception, message: message})
	return pyconfig.Status(len(r.statuses))
}

func (r *Runtime) ok() pyconfig.Status {
	return r.newStatus(false, "")
}

// Memory returns the fake linear memory.
func (r *Runtime) Memory() pyboot.Memory {
	return r.mem
}

// Malloc implements PyMem_RawMalloc.
func (r *Runtime) Malloc(_ context.Context, size uint32) (pyboot.Ptr, error) {
	r.record("PyMem_RawMalloc")
	r.mallocs++
	if r.FailMallocAt > 0 && r.mallocs == r.FailMallocAt {
		return 0, nil
	}
	return r.Alloc(size), nil
}

// Calloc implements PyMem_RawCalloc.
func (r *Runtime) Calloc(_ context.Context, n, size uint32) (pyboot.Ptr, error) {
	r.record("PyMem_RawCalloc")
	if r.FailCalloc {
		return 0, nil
	}
	return r.Alloc(n * size), nil
}

// Free implements PyMem_RawFree.
func (r *Runtime) Free(_ context.Context, p pyboot.Ptr) error {
	r.record("PyMem_RawFree")
	r.release(p)
	return nil
}

// StatusException implements PyStatus_Exception.
func (r *Runtime) StatusException(_ context.Context, st pyconfig.Status) (bool, error) {
	r.record("PyStatus_Exception")
	if st == 0 || int(st) > len(r.statuses) {
		return false, nil
	}
	return r.statuses[st-1].exception, nil
}

// StatusMessage returns the err_msg of st.
func (r *Runtime) StatusMessage(_ context.Context, st pyconfig.Status) (string, error) {
	if r.FailStatusMessage {
		return "", errors.New("status message out of bounds")
	}
	if st == 0 || int(st) > len(r.statuses) {
		return "", nil
	}
	return r.statuses[st-1].message, nil
}

// DecodeLocale implements Py_DecodeLocale.
func (r *Runtime) DecodeLocale(_ context.Context, arg pyboot.Ptr) (pyboot.Ptr, error) {
	r.record("Py_DecodeLocale")
	r.decodes++
	if r.FailDecodeAt > 0 && r.decodes == r.FailDecodeAt {
		return 0, nil
	}
	return r.decode(arg)
}

// decode turns a UTF-8 C string into a runtime-owned wide string.
func (r *Runtime) decode(arg pyboot.Ptr) (pyboot.Ptr, error) {
	s, err := pyboot.ReadCString(r.mem, arg, maxString)
	if err != nil {
		return 0, err
	}
	if !utf8.ValidString(s) {
		return 0, nil
	}
	w, err := r.platform.Encoding().Encode(s)
	if err != nil {
		return 0, nil
	}
	p := r.Alloc(uint32(len(w)))
	return p, r.mem.Write(p, w)
}

// copyWide duplicates the wide string at src into a new allocation.
func (r *Runtime) copyWide(src pyboot.Ptr) (pyboot.Ptr, error) {
	data, err := r.readWide(src)
	if err != nil {
		return 0, err
	}
	p := r.Alloc(uint32(len(data)))
	return p, r.mem.Write(p, data)
}

// readWide returns the wide string at p including its terminator.
func (r *Runtime) readWide(p pyboot.Ptr) ([]byte, error) {
	size := r.platform.WcharSize
	var out []byte
	for n := uint32(0); n < maxString; n++ {
		unit, err := r.mem.Read(p+n*size, size)
		if err != nil {
			return nil, err
		}
		out = append(out, unit...)
		if slices.Equal(unit, make([]byte, size)) {
			break
		}
	}
	return out, nil
}

func (r *Runtime) writePtr(addr, value pyboot.Ptr) error {
	if r.platform.Model.Pointer == 8 {
		return r.mem.WriteU64(addr, uint64(value))
	}
	return r.mem.WriteU32(addr, value)
}

func (r *Runtime) readPtr(addr pyboot.Ptr) (pyboot.Ptr, error) {
	if r.platform.Model.Pointer == 8 {
		v, err := r.mem.ReadU64(addr)
		return pyboot.Ptr(v), err
	}
	return r.mem.ReadU32(addr)
}

// own replaces the allocations backing field of config.
func (r *Runtime) own(config, field pyboot.Ptr, ptrs ...pyboot.Ptr) {
	fields, ok := r.owned[config]
	if !ok {
		fields = make(map[pyboot.Ptr][]pyboot.Ptr)
		r.owned[config] = fields
	}
	for _, p := range fields[field] {
		r.release(p)
	}
	fields[field] = ptrs
}

// ConfigSetString implements PyConfig_SetString.
func (r *Runtime) ConfigSetString(_ context.Context, config, field, value pyboot.Ptr) (pyconfig.Status, error) {
	r.record("PyConfig_SetString")
	p, err := r.copyWide(value)
	if err != nil {
		return 0, err
	}
	if err := r.writePtr(field, p); err != nil {
		return 0, err
	}
	r.own(config, field, p)
	return r.ok(), nil
}

// ConfigSetBytesString implements PyConfig_SetBytesString.
func (r *Runtime) ConfigSetBytesString(_ context.Context, config, field, value pyboot.Ptr) (pyconfig.Status, error) {
	r.record("PyConfig_SetBytesString")
	p, err := r.decode(value)
	if err != nil {
		return 0, err
	}
	if p == 0 {
		return r.newStatus(true, "cannot decode string"), nil
	}
	if err := r.writePtr(field, p); err != nil {
		return 0, err
	}
	r.own(config, field, p)
	return r.ok(), nil
}

// ConfigSetWideStringList implements PyConfig_SetWideStringList.
func (r *Runtime) ConfigSetWideStringList(_ context.Context, config, list pyboot.Ptr, length uint32, items pyboot.Ptr) (pyconfig.Status, error) {
	r.record("PyConfig_SetWideStringList")
	r.listCalls++
	if r.FailListAt > 0 && r.listCalls == r.FailListAt {
		return r.newStatus(true, "memory allocation failed"), nil
	}

	ptrSize := r.platform.Model.Pointer
	copies := make([]pyboot.Ptr, 0, length+1)
	arr := r.Alloc(length * ptrSize)
	copies = append(copies, arr)
	for i := uint32(0); i < length; i++ {
		src, err := r.readPtr(items + i*ptrSize)
		if err != nil {
			return 0, err
		}
		p, err := r.copyWide(src)
		if err != nil {
			return 0, err
		}
		copies = append(copies, p)
		if err := r.writePtr(arr+i*ptrSize, p); err != nil {
			return 0, err
		}
	}

	if err := r.writePtr(list, length); err != nil {
		return 0, err
	}
	if err := r.writePtr(list+ptrSize, arr); err != nil {
		return 0, err
	}
	r.own(config, list, copies...)
	return r.ok(), nil
}

// ConfigClear implements PyConfig_Clear, releasing everything the config owns.
func (r *Runtime) ConfigClear(_ context.Context, config pyboot.Ptr) error {
	r.record("PyConfig_Clear")
	for field := range r.owned[config] {
		r.own(config, field)
	}
	delete(r.owned, config)
	return nil
}

// PreConfigInitIsolated implements PyPreConfig_InitIsolatedConfig.
func (r *Runtime) PreConfigInitIsolated(_ context.Context, preconfig pyboot.Ptr) error {
	r.record("PyPreConfig_InitIsolatedConfig")
	if r.layout == nil {
		return nil
	}
	// isolated defaults: _config_init=3 (isolated), isolated=1
	for name, value := range map[string]uint32{"_config_init": 3, "isolated": 1} {
		if off, ok := r.layout.PreConfig.Offset(name); ok {
			if err := r.mem.WriteU32(preconfig+off, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// PreInitialize implements Py_PreInitialize.
func (r *Runtime) PreInitialize(_ context.Context, preconfig pyboot.Ptr) (pyconfig.Status, error) {
	r.record("Py_PreInitialize")
	if r.layout != nil {
		read := func(name string) int32 {
			off, _ := r.layout.PreConfig.Offset(name)
			v, _ := r.mem.ReadU32(preconfig + off)
			return int32(v)
		}
		r.PreInits = append(r.PreInits, PreConfig{
			UTF8Mode:        read("utf8_mode"),
			DevMode:         read("dev_mode"),
			ConfigureLocale: read("configure_locale"),
		})
	}
	if r.FailPreInit {
		return r.newStatus(true, "failed to set locale"), nil
	}
	return r.ok(), nil
}

// Called reports whether call appears in Calls.
func (r *Runtime) Called(call string) bool {
	return slices.Contains(r.Calls, call)
}

var _ pyconfig.API = (*Runtime)(nil)
