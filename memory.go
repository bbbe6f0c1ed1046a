package pyboot

import "context"

// Ptr is an address in runtime-owned memory. Zero is the null pointer.
type Ptr = uint32

// Memory represents the hosted runtime's memory
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// Allocator allocates memory through the hosted runtime's raw allocator.
// A zero Ptr with a nil error means the runtime is out of memory; a non-nil
// error means the call itself failed. Memory obtained here must be released
// with Free of the same Allocator, never by the host.
type Allocator interface {
	Malloc(ctx context.Context, size uint32) (Ptr, error)
	Calloc(ctx context.Context, n, size uint32) (Ptr, error)
	Free(ctx context.Context, p Ptr) error
}

// ReadCString reads a NUL-terminated byte string starting at p.
// It reads at most limit bytes.
func ReadCString(mem Memory, p Ptr, limit uint32) (string, error) {
	if p == 0 {
		return "", nil
	}
	var buf []byte
	for i := uint32(0); i < limit; i++ {
		c, err := mem.ReadU8(p + i)
		if err != nil {
			return "", err
		}
		if c == 0 {
			return string(buf), nil
		}
		buf = append(buf, c)
	}
	return string(buf), nil
}
