package pyconfig

import (
	"context"
	"strings"

	"github.com/wippyai/pyboot/errors"
	"github.com/wippyai/pyboot/layout"
	"github.com/wippyai/pyboot/wchar"
	"go.uber.org/zap"
)

// bridge turns host strings into runtime-owned wide strings. Anything it
// returns is released with release, through the runtime allocator.
type bridge interface {
	wide(ctx context.Context, field, s string) (Ptr, error)
	release(ctx context.Context, p Ptr)
	setString(ctx context.Context, cfg *Config, field, s string) error
}

func bridgeFor(s *Startup) bridge {
	if s.Platform.HostWide {
		return &wideBridge{api: s.API, enc: s.Platform.Encoding(), version: s.Version}
	}
	return &localeBridge{api: s.API, version: s.Version}
}

// localeBridge lets the runtime decode byte strings with its own locale,
// which pre-initialization has configured.
type localeBridge struct {
	api     API
	version Version
}

func (b *localeBridge) wide(ctx context.Context, field, s string) (Ptr, error) {
	staged, err := stageBytes(ctx, b.api, field, s)
	if err != nil {
		return 0, err
	}
	defer freeQuietly(ctx, b.api, staged)

	p, err := b.api.DecodeLocale(ctx, staged)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindRuntimeAPI, err, "Py_DecodeLocale")
	}
	if p == 0 {
		return 0, errors.New(errors.PhaseEncode, errors.KindConversion).
			Field(field).
			Version(b.version.String()).
			Detail("Py_DecodeLocale could not decode %q", s).
			Build()
	}
	return p, nil
}

func (b *localeBridge) release(ctx context.Context, p Ptr) {
	freeQuietly(ctx, b.api, p)
}

func (b *localeBridge) setString(ctx context.Context, cfg *Config, field, s string) error {
	addr, err := cfg.field(field, layout.WideString)
	if err != nil {
		return err
	}
	staged, err := stageBytes(ctx, b.api, field, s)
	if err != nil {
		return err
	}
	defer freeQuietly(ctx, b.api, staged)

	st, err := b.api.ConfigSetBytesString(ctx, cfg.ptr, addr, staged)
	return checkStatus(ctx, b.api, errors.PhaseSetter, "PyConfig_SetBytesString", field, b.version, st, err)
}

// wideBridge converts on the host and copies the result into runtime
// memory. Used where the runtime expects native wide strings.
type wideBridge struct {
	api     API
	enc     *wchar.Encoding
	version Version
}

func (b *wideBridge) wide(ctx context.Context, field, s string) (Ptr, error) {
	w, err := b.enc.Encode(s)
	if err != nil {
		return 0, errors.ConversionFailed(errors.PhaseEncode, field, err)
	}
	return stage(ctx, b.api, field, w)
}

func (b *wideBridge) release(ctx context.Context, p Ptr) {
	freeQuietly(ctx, b.api, p)
}

func (b *wideBridge) setString(ctx context.Context, cfg *Config, field, s string) error {
	addr, err := cfg.field(field, layout.WideString)
	if err != nil {
		return err
	}
	p, err := b.wide(ctx, field, s)
	if err != nil {
		return err
	}
	defer b.release(ctx, p)

	st, err := b.api.ConfigSetString(ctx, cfg.ptr, addr, p)
	return checkStatus(ctx, b.api, errors.PhaseSetter, "PyConfig_SetString", field, b.version, st, err)
}

// stageBytes copies s with a terminating NUL into runtime memory.
func stageBytes(ctx context.Context, api API, field, s string) (Ptr, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return 0, errors.ConversionFailed(errors.PhaseEncode, field, wchar.ErrEmbeddedNUL)
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return stage(ctx, api, field, buf)
}

func stage(ctx context.Context, api API, field string, data []byte) (Ptr, error) {
	size := uint32(len(data))
	p, err := api.Malloc(ctx, size)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindAllocation, err, "PyMem_RawMalloc")
	}
	if p == 0 {
		return 0, errors.AllocationFailed(errors.PhaseEncode, field, size)
	}
	if err := api.Memory().Write(p, data); err != nil {
		freeQuietly(ctx, api, p)
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindAllocation, err, "write staged string")
	}
	return p, nil
}

func freeQuietly(ctx context.Context, api API, p Ptr) {
	if p == 0 {
		return
	}
	if err := api.Free(ctx, p); err != nil {
		Logger().Warn("PyMem_RawFree failed", zap.Uint32("ptr", p), zap.Error(err))
	}
}

// checkStatus turns a PyStatus result into an error.
func checkStatus(ctx context.Context, api API, phase errors.Phase, call, field string, v Version, st Status, callErr error) error {
	if callErr != nil {
		return errors.New(phase, errors.KindRuntimeAPI).
			Field(field).
			Version(v.String()).
			Cause(callErr).
			Detail("%s call failed", call).
			Build()
	}

	exc, err := api.StatusException(ctx, st)
	if err != nil {
		return errors.New(phase, errors.KindRuntimeAPI).
			Field(field).
			Version(v.String()).
			Cause(err).
			Detail("PyStatus_Exception call failed").
			Build()
	}
	if !exc {
		return nil
	}

	msg, err := api.StatusMessage(ctx, st)
	if err != nil {
		Logger().Debug("PyStatus message unreadable", zap.String("call", call), zap.Error(err))
		msg = ""
	}
	rtErr := errors.RuntimeAPI(phase, call, field, msg)
	rtErr.Version = v.String()
	return rtErr
}
