package pyconfig

import (
	"context"
	"fmt"

	"github.com/wippyai/pyboot"
	"github.com/wippyai/pyboot/errors"
	"github.com/wippyai/pyboot/layout"
	"go.uber.org/zap"
)

// maxWideString bounds reads of wchar_t strings out of runtime memory.
const maxWideString = 1 << 16

// Config is a PyConfig living in runtime memory. It must be released with
// Free, which clears it through the runtime first.
type Config struct {
	api    API
	layout *Layout
	ptr    Ptr
	freed  bool
}

// Allocate creates a zero-initialized PyConfig for s.Version. An unsupported
// version fails before any runtime call is made.
func Allocate(ctx context.Context, s *Startup) (*Config, error) {
	l, err := TableFor(s.Platform).Lookup(s.Version)
	if err != nil {
		return nil, err
	}

	ptr, err := s.API.Calloc(ctx, 1, l.Config.Size)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLifecycle, errors.KindAllocation, err, "PyMem_RawCalloc")
	}
	if ptr == 0 {
		return nil, errors.AllocationFailed(errors.PhaseLifecycle, l.Decl.Name, l.Config.Size)
	}

	Logger().Debug("config allocated",
		zap.Stringer("version", s.Version),
		zap.Uint32("ptr", ptr),
		zap.Uint32("size", l.Config.Size))

	return &Config{api: s.API, layout: l, ptr: ptr}, nil
}

// Ptr returns the runtime address of the PyConfig.
func (c *Config) Ptr() Ptr {
	return c.ptr
}

// Layout returns the dispatch entry the config was allocated with.
func (c *Config) Layout() *Layout {
	return c.layout
}

// Free clears the config through the runtime and releases its memory.
// Calling Free on nil or on an already freed Config does nothing.
func (c *Config) Free(ctx context.Context) error {
	if c == nil || c.freed {
		return nil
	}
	c.freed = true

	clearErr := c.api.ConfigClear(ctx, c.ptr)
	freeErr := c.api.Free(ctx, c.ptr)
	c.ptr = 0

	if clearErr != nil {
		return errors.Wrap(errors.PhaseLifecycle, errors.KindRuntimeAPI, clearErr, "PyConfig_Clear")
	}
	if freeErr != nil {
		return errors.Wrap(errors.PhaseLifecycle, errors.KindRuntimeAPI, freeErr, "PyMem_RawFree")
	}
	return nil
}

func (c *Config) field(name string, kind layout.Kind) (Ptr, error) {
	if c.freed {
		return 0, errors.InvalidInput(errors.PhaseSetter, "config already freed")
	}
	return fieldAddr(c.layout.Config, c.ptr, name, kind, c.layout.Version)
}

func fieldAddr(info layout.Info, base Ptr, name string, kind layout.Kind, v Version) (Ptr, error) {
	off, ok := info.Offset(name)
	if !ok {
		return 0, errors.New(errors.PhaseSetter, errors.KindNotFound).
			Field(name).
			Version(v.String()).
			Detail("field not present in this layout").
			Build()
	}
	if info.FieldKinds[name] != kind {
		return 0, errors.New(errors.PhaseSetter, errors.KindInvalidInput).
			Field(name).
			Version(v.String()).
			Detail("field is %s, not %s", info.FieldKinds[name], kind).
			Build()
	}
	return base + off, nil
}

// SetInt writes an int field directly.
func (c *Config) SetInt(name string, value int32) error {
	addr, err := c.field(name, layout.Int)
	if err != nil {
		return err
	}
	return c.write(name, c.api.Memory().WriteU32(addr, uint32(value)))
}

// SetULong writes an unsigned long field directly.
func (c *Config) SetULong(name string, value uint64) error {
	addr, err := c.field(name, layout.ULong)
	if err != nil {
		return err
	}
	mem := c.api.Memory()
	if c.layout.Platform.Model.Long == 8 {
		return c.write(name, mem.WriteU64(addr, value))
	}
	if value > 0xFFFFFFFF {
		value = 0xFFFFFFFF
	}
	return c.write(name, mem.WriteU32(addr, uint32(value)))
}

func (c *Config) write(name string, err error) error {
	if err != nil {
		return errors.New(errors.PhaseSetter, errors.KindRuntimeAPI).
			Field(name).
			Version(c.layout.Version.String()).
			Cause(err).
			Detail("write to runtime memory").
			Build()
	}
	return nil
}

// Int reads an int field.
func (c *Config) Int(name string) (int32, error) {
	addr, err := c.field(name, layout.Int)
	if err != nil {
		return 0, err
	}
	v, err := c.api.Memory().ReadU32(addr)
	return int32(v), err
}

// ULong reads an unsigned long field.
func (c *Config) ULong(name string) (uint64, error) {
	addr, err := c.field(name, layout.ULong)
	if err != nil {
		return 0, err
	}
	mem := c.api.Memory()
	if c.layout.Platform.Model.Long == 8 {
		return mem.ReadU64(addr)
	}
	v, err := mem.ReadU32(addr)
	return uint64(v), err
}

// String reads a wchar_t* field and decodes it to UTF-8. A null field
// reads as "".
func (c *Config) String(name string) (string, error) {
	addr, err := c.field(name, layout.WideString)
	if err != nil {
		return "", err
	}
	p, err := readPtr(c.api.Memory(), c.layout.Platform.Model, addr)
	if err != nil {
		return "", err
	}
	return readWide(c.api.Memory(), c.layout.Platform, p)
}

// StringList reads a PyWideStringList field.
func (c *Config) StringList(name string) ([]string, error) {
	addr, err := c.field(name, layout.WideStringList)
	if err != nil {
		return nil, err
	}
	mem := c.api.Memory()
	model := c.layout.Platform.Model

	length, err := readPtr(mem, model, addr)
	if err != nil {
		return nil, err
	}
	items, err := readPtr(mem, model, addr+model.Pointer)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, length)
	for i := uint32(0); i < length; i++ {
		p, err := readPtr(mem, model, items+i*model.Pointer)
		if err != nil {
			return nil, err
		}
		s, err := readWide(mem, c.layout.Platform, p)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// readPtr reads a pointer-sized value. Runtime addresses are 32-bit, so
// the high half of a 64-bit slot is ignored.
func readPtr(mem pyboot.Memory, model layout.DataModel, addr Ptr) (Ptr, error) {
	if model.Pointer == 8 {
		v, err := mem.ReadU64(addr)
		return Ptr(v), err
	}
	return mem.ReadU32(addr)
}

func writePtr(mem pyboot.Memory, model layout.DataModel, addr, value Ptr) error {
	if model.Pointer == 8 {
		return mem.WriteU64(addr, uint64(value))
	}
	return mem.WriteU32(addr, value)
}

func readWide(mem pyboot.Memory, p *Platform, addr Ptr) (string, error) {
	if addr == 0 {
		return "", nil
	}
	size := p.WcharSize
	var buf []byte
	for n := uint32(0); n < maxWideString; n++ {
		unit, err := mem.Read(addr+n*size, size)
		if err != nil {
			return "", err
		}
		if isZero(unit) {
			break
		}
		buf = append(buf, unit...)
	}
	return p.Encoding().Decode(buf)
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
