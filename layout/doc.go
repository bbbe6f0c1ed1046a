// Package layout computes C struct layouts for a data model.
//
// Structs are declared as ordered field lists, optionally with fields that
// exist only in some builds (Windows, free-threaded). Natural alignment
// applies: each field is aligned to its own size, the struct to its widest
// member, and the total size is padded to that alignment.
//
//	calc := layout.NewCalculator(layout.Target{Model: layout.ILP32})
//	info := calc.Struct(&decl)
//	off, ok := info.Offset("home")
package layout
