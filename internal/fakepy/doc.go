// Package fakepy provides an in-memory fake of the CPython C API surface
// used by pyconfig, for tests. Strings set through it are copied into
// allocations owned by the config and released by PyConfig_Clear, so leak
// checks can compare Live() before and after a build.
package fakepy
