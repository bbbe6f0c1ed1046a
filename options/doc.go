// Package options extracts interpreter startup options from an archive TOC.
//
// Recognized runtime-option entry names:
//
//	v, verbose        increment Verbose
//	u, unbuffered     set Unbuffered
//	O, optimize       increment Optimize
//	W <rule>          append <rule> to WarnFlags
//	X <key[=value]>   append to XFlags; "utf8" and "dev" also set UTF8Mode/DevMode
//	hash_seed=<uint>  set UseHashSeed and HashSeed (first match wins)
//	pyi-*             bootloader-private, ignored
//
// The hash seed value is parsed permissively: the leading digits are used and
// trailing characters are ignored without error.
package options
