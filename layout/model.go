package layout

// DataModel describes the sizes of the C integer and pointer types on a
// target ABI.
type DataModel struct {
	Name    string
	Pointer uint32
	Long    uint32
}

var (
	// ILP32 is wasm32 and 32-bit POSIX.
	ILP32 = DataModel{Name: "ILP32", Pointer: 4, Long: 4}

	// LP64 is 64-bit POSIX.
	LP64 = DataModel{Name: "LP64", Pointer: 8, Long: 8}

	// LLP64 is 64-bit Windows.
	LLP64 = DataModel{Name: "LLP64", Pointer: 8, Long: 4}
)

// Kind is the C type of a struct field.
type Kind uint8

const (
	Int            Kind = iota // int
	ULong                      // unsigned long
	WideString                 // wchar_t *
	WideStringList             // PyWideStringList {Py_ssize_t length; wchar_t **items}
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case ULong:
		return "unsigned long"
	case WideString:
		return "wchar_t*"
	case WideStringList:
		return "PyWideStringList"
	default:
		return "unknown"
	}
}

// Condition restricts a field to some builds of the struct.
type Condition uint8

const (
	Always       Condition = iota
	WindowsOnly            // MS_WINDOWS
	FreeThreaded           // Py_GIL_DISABLED
)

// Field is one member of a C struct declaration.
type Field struct {
	Name string
	Kind Kind
	When Condition
}

// Struct is an ordered C struct declaration.
type Struct struct {
	Name   string
	Fields []Field
}

// Target selects which conditional fields are compiled in.
type Target struct {
	Model        DataModel
	Windows      bool
	FreeThreaded bool
}

func (t Target) includes(c Condition) bool {
	switch c {
	case WindowsOnly:
		return t.Windows
	case FreeThreaded:
		return t.FreeThreaded
	default:
		return true
	}
}

// AlignTo rounds offset up to a multiple of align, which must be a power of
// two.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
