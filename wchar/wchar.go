package wchar

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

var (
	// ErrInvalidUTF8 is returned when the byte string is not valid UTF-8.
	ErrInvalidUTF8 = stderrors.New("invalid UTF-8 input")

	// ErrEmbeddedNUL is returned when the byte string contains a NUL byte,
	// which a C wide string cannot represent.
	ErrEmbeddedNUL = stderrors.New("embedded NUL in string")
)

// String is a NUL-terminated wchar_t string in host memory, encoded
// little-endian in the width of its Encoding.
type String []byte

// Encoding converts between UTF-8 and one wchar_t width.
type Encoding struct {
	enc  encoding.Encoding
	size int
}

var (
	// UTF16 is the 2-byte wchar_t of Windows targets.
	UTF16 = &Encoding{size: 2, enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}

	// UTF32 is the 4-byte wchar_t of POSIX and WASI targets.
	UTF32 = &Encoding{size: 4, enc: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)}
)

// ForSize returns the encoding for a wchar_t of size bytes.
func ForSize(size uint32) (*Encoding, error) {
	switch size {
	case 2:
		return UTF16, nil
	case 4:
		return UTF32, nil
	default:
		return nil, fmt.Errorf("unsupported wchar_t size %d", size)
	}
}

// Size returns the width of one wchar_t in bytes.
func (e *Encoding) Size() int {
	return e.size
}

// Encode converts s to a NUL-terminated wide string.
func (e *Encoding) Encode(s string) (String, error) {
	if !utf8.ValidString(s) {
		return nil, ErrInvalidUTF8
	}
	if strings.IndexByte(s, 0) >= 0 {
		return nil, ErrEmbeddedNUL
	}

	out, err := e.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}

	w := make(String, len(out)+e.size)
	copy(w, out)
	return w, nil
}

// Decode converts a wide string back to UTF-8. Anything after the first
// NUL character is ignored; a missing terminator is tolerated.
func (e *Encoding) Decode(w String) (string, error) {
	n := e.Units(w)
	out, err := e.enc.NewDecoder().Bytes(w[:n*e.size])
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Units returns the number of wchar_t units before the terminator.
func (e *Encoding) Units(w String) int {
	zero := make([]byte, e.size)
	for i := 0; i+e.size <= len(w); i += e.size {
		if bytes.Equal(w[i:i+e.size], zero) {
			return i / e.size
		}
	}
	return len(w) / e.size
}
