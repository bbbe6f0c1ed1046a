package loader

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// memory adapts wazero api.Memory to pyboot.Memory.
type memory struct {
	mem api.Memory
}

// Size returns the memory size in bytes.
func (m *memory) Size() uint32 {
	return m.mem.Size()
}

// Read returns a copy of length bytes at offset.
func (m *memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	// The view aliases guest memory.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write writes data at offset.
func (m *memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

// ReadU8 reads a byte.
func (m *memory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, outOfBounds(offset)
	}
	return v, nil
}

// ReadU16 reads a little-endian uint16.
func (m *memory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, outOfBounds(offset)
	}
	return v, nil
}

// ReadU32 reads a little-endian uint32.
func (m *memory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, outOfBounds(offset)
	}
	return v, nil
}

// ReadU64 reads a little-endian uint64.
func (m *memory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, outOfBounds(offset)
	}
	return v, nil
}

// WriteU8 writes a byte.
func (m *memory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return outOfBounds(offset)
	}
	return nil
}

// WriteU16 writes a little-endian uint16.
func (m *memory) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return outOfBounds(offset)
	}
	return nil
}

// WriteU32 writes a little-endian uint32.
func (m *memory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return outOfBounds(offset)
	}
	return nil
}

// WriteU64 writes a little-endian uint64.
func (m *memory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return outOfBounds(offset)
	}
	return nil
}

func outOfBounds(offset uint32) error {
	return fmt.Errorf("memory access out of bounds: offset=%d", offset)
}
