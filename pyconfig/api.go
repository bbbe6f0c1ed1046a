package pyconfig

import (
	"context"

	"github.com/wippyai/pyboot"
)

type Ptr = pyboot.Ptr

// Status is a PyStatus result held by the runtime. It stays valid until the
// next API call.
type Status uint32

// API is the function table the runtime loader resolves from the hosted
// runtime. Every config mutation goes through it. A returned error means the
// call could not be made at all; runtime-level failures are reported through
// Status or a zero Ptr.
type API interface {
	pyboot.Allocator

	// Memory is the runtime's address space.
	Memory() pyboot.Memory

	// StatusException is PyStatus_Exception.
	StatusException(ctx context.Context, st Status) (bool, error)

	// StatusMessage returns the err_msg of st, or "" when it has none.
	StatusMessage(ctx context.Context, st Status) (string, error)

	// ConfigSetString is PyConfig_SetString(config, field, value).
	ConfigSetString(ctx context.Context, config, field, value Ptr) (Status, error)

	// ConfigSetBytesString is PyConfig_SetBytesString(config, field, value).
	ConfigSetBytesString(ctx context.Context, config, field, value Ptr) (Status, error)

	// ConfigSetWideStringList is PyConfig_SetWideStringList.
	ConfigSetWideStringList(ctx context.Context, config, list Ptr, length uint32, items Ptr) (Status, error)

	// ConfigClear is PyConfig_Clear.
	ConfigClear(ctx context.Context, config Ptr) error

	// DecodeLocale is Py_DecodeLocale(arg, NULL). A zero result means the
	// string could not be decoded. The result is released with Free.
	DecodeLocale(ctx context.Context, arg Ptr) (Ptr, error)

	// PreConfigInitIsolated is PyPreConfig_InitIsolatedConfig.
	PreConfigInitIsolated(ctx context.Context, preconfig Ptr) error

	// PreInitialize is Py_PreInitialize.
	PreInitialize(ctx context.Context, preconfig Ptr) (Status, error)
}
