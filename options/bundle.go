package options

import (
	"github.com/wippyai/pyboot/wchar"
)

// TriState is a setting that may be left for the runtime to decide.
type TriState int

const (
	Auto TriState = -1
	Off  TriState = 0
	On   TriState = 1
)

func (t TriState) String() string {
	switch t {
	case Auto:
		return "auto"
	case Off:
		return "off"
	case On:
		return "on"
	default:
		return "invalid"
	}
}

// Bundle holds the runtime options collected from an archive TOC.
// It is owned by whoever called Extract until passed to Free, and must stay
// unmodified while config setters read it.
type Bundle struct {
	enc *wchar.Encoding

	// WarnFlags and XFlags hold the text after the "W " / "X " prefix in
	// archive order, converted to wide strings.
	WarnFlags []wchar.String
	XFlags    []wchar.String

	HashSeed    uint64
	Verbose     uint
	Optimize    uint
	UTF8Mode    TriState
	Unbuffered  bool
	UseHashSeed bool
	DevMode     bool
}

// Encoding returns the wide-string encoding the flags were converted with.
func (b *Bundle) Encoding() *wchar.Encoding {
	return b.enc
}

// WarnOptions returns the W flags as UTF-8 text.
func (b *Bundle) WarnOptions() []string {
	return b.decodeAll(b.WarnFlags)
}

// XOptions returns the X flags as UTF-8 text.
func (b *Bundle) XOptions() []string {
	return b.decodeAll(b.XFlags)
}

func (b *Bundle) decodeAll(flags []wchar.String) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		s, err := b.enc.Decode(f)
		if err != nil {
			s = "<undecodable>"
		}
		out = append(out, s)
	}
	return out
}

// Free releases the bundle's flag arrays. Safe to call with nil.
func Free(b *Bundle) {
	if b == nil {
		return
	}
	releaseFlags(b.WarnFlags)
	releaseFlags(b.XFlags)
	b.WarnFlags = nil
	b.XFlags = nil
}

func releaseFlags(flags []wchar.String) {
	for i := range flags {
		clear(flags[i])
		flags[i] = nil
	}
}
