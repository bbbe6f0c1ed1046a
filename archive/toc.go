package archive

import (
	"iter"
	"slices"
)

// TypeCode classifies a TOC entry.
type TypeCode byte

const (
	TypeBinary        TypeCode = 'b'
	TypeDependency    TypeCode = 'd'
	TypeZipFile       TypeCode = 'z'
	TypePYZ           TypeCode = 'Z'
	TypePyPackage     TypeCode = 'M'
	TypePyModule      TypeCode = 'm'
	TypePySource      TypeCode = 's'
	TypeData          TypeCode = 'x'
	TypeRuntimeOption TypeCode = 'o'
	TypeSymlink       TypeCode = 'l'
)

var typeNames = map[TypeCode]string{
	TypeBinary:        "binary",
	TypeDependency:    "dependency",
	TypeZipFile:       "zipfile",
	TypePYZ:           "pyz",
	TypePyPackage:     "package",
	TypePyModule:      "module",
	TypePySource:      "source",
	TypeData:          "data",
	TypeRuntimeOption: "option",
	TypeSymlink:       "symlink",
}

func (t TypeCode) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return string(rune(t))
}

// ParseTypeCode accepts either a type name ("option") or the raw
// single-character code ("o").
func ParseTypeCode(s string) (TypeCode, bool) {
	for code, name := range typeNames {
		if name == s {
			return code, true
		}
	}
	if len(s) == 1 {
		if _, ok := typeNames[TypeCode(s[0])]; ok {
			return TypeCode(s[0]), true
		}
	}
	return 0, false
}

// Entry is one TOC descriptor.
type Entry struct {
	Name string
	Type TypeCode
}

// TOC is an ordered, read-only sequence of entries. All may be called any
// number of times and always yields entries in archive order.
type TOC interface {
	All() iter.Seq[Entry]
}

// List is an in-memory TOC.
type List []Entry

// All implements TOC.
func (l List) All() iter.Seq[Entry] {
	return slices.Values(l)
}

// Options yields only the runtime-option entries of toc, in order. A nil toc
// yields nothing.
func Options(toc TOC) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if toc == nil {
			return
		}
		for e := range toc.All() {
			if e.Type != TypeRuntimeOption {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}
