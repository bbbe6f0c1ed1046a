package pyconfig

import (
	"context"

	"github.com/wippyai/pyboot/errors"
	"github.com/wippyai/pyboot/layout"
	"github.com/wippyai/pyboot/options"
	"go.uber.org/zap"
)

// PreInitialize runs Py_PreInitialize with an isolated pre-config carrying
// the bundle's encoding and dev mode, and asks the runtime to adopt the
// user's preferred locale. It must run once, before Allocate.
func PreInitialize(ctx context.Context, s *Startup, opts *options.Bundle) error {
	l, err := TableFor(s.Platform).Lookup(s.Version)
	if err != nil {
		return err
	}

	size := l.PreConfig.Size
	pre, err := s.API.Calloc(ctx, 1, size)
	if err != nil {
		return errors.Wrap(errors.PhasePreInit, errors.KindAllocation, err, "PyMem_RawCalloc")
	}
	if pre == 0 {
		return errors.AllocationFailed(errors.PhasePreInit, preConfigStruct.Name, size)
	}
	defer freeQuietly(ctx, s.API, pre)

	if err := s.API.PreConfigInitIsolated(ctx, pre); err != nil {
		return errors.Wrap(errors.PhasePreInit, errors.KindRuntimeAPI, err, "PyPreConfig_InitIsolatedConfig")
	}

	utf8Mode := int32(options.Auto)
	devMode := false
	if opts != nil {
		utf8Mode = int32(opts.UTF8Mode)
		devMode = opts.DevMode
	}

	fields := []struct {
		name  string
		value int32
	}{
		{preFieldUTF8Mode, utf8Mode},
		{preFieldDevMode, boolInt(devMode)},
		{preFieldConfigureLocale, 1},
	}
	mem := s.API.Memory()
	for _, f := range fields {
		addr, err := fieldAddr(l.PreConfig, pre, f.name, layout.Int, s.Version)
		if err != nil {
			return err
		}
		if err := mem.WriteU32(addr, uint32(f.value)); err != nil {
			return errors.Wrap(errors.PhasePreInit, errors.KindRuntimeAPI, err, "write "+f.name)
		}
	}

	Logger().Debug("pre-initializing runtime",
		zap.Int32("utf8_mode", utf8Mode),
		zap.Bool("dev_mode", devMode))

	st, err := s.API.PreInitialize(ctx, pre)
	return checkStatus(ctx, s.API, errors.PhasePreInit, "Py_PreInitialize", "", s.Version, st, err)
}
