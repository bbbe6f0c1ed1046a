// Package wchar converts UTF-8 byte strings to and from C wchar_t strings.
//
// The runtime's configuration API takes wide strings. Targets differ in
// wchar_t width: Windows uses 2-byte UTF-16 units, POSIX and WASI use
// 4-byte UTF-32 units. Both are little-endian here.
//
//	enc, _ := wchar.ForSize(4)
//	w, err := enc.Encode("ignore::DeprecationWarning")
//
// Encoded strings always carry a terminating NUL unit.
package wchar
