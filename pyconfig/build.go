package pyconfig

import (
	"context"

	"github.com/wippyai/pyboot/archive"
	"github.com/wippyai/pyboot/errors"
	"github.com/wippyai/pyboot/options"
	"go.uber.org/zap"
)

// State is a step of the startup sequence. States only move forward.
type State int

const (
	StateVersionResolved State = iota
	StateOptionsExtracted
	StatePreInitialized
	StateConfigAllocated
	StateProgramNameSet
	StateHomeSet
	StateSearchPathsSet
	StateArgvSet
	StateRuntimeOptionsSet
	StateReadyForInit
	StateFailed
)

var stateNames = [...]string{
	StateVersionResolved:   "version_resolved",
	StateOptionsExtracted:  "options_extracted",
	StatePreInitialized:    "pre_initialized",
	StateConfigAllocated:   "config_allocated",
	StateProgramNameSet:    "program_name_set",
	StateHomeSet:           "home_set",
	StateSearchPathsSet:    "search_paths_set",
	StateArgvSet:           "argv_set",
	StateRuntimeOptionsSet: "runtime_options_set",
	StateReadyForInit:      "ready_for_init",
	StateFailed:            "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Builder runs the startup sequence once.
type Builder struct {
	s        *Startup
	log      *zap.Logger
	state    State
	failedAt State
	used     bool
}

// NewBuilder returns a builder for s.
func NewBuilder(s *Startup) *Builder {
	return &Builder{
		s:     s,
		log:   Logger(),
		state: StateVersionResolved,
	}
}

// State returns the current state.
func (b *Builder) State() State {
	return b.state
}

// FailedAt returns the last state reached before a failure.
func (b *Builder) FailedAt() State {
	return b.failedAt
}

func (b *Builder) advance(to State) {
	b.log.Debug("startup state", zap.Stringer("from", b.state), zap.Stringer("to", to))
	b.state = to
}

func (b *Builder) fail(err error) error {
	b.failedAt = b.state
	b.log.Warn("startup failed", zap.Stringer("state", b.state), zap.Error(err))
	b.state = StateFailed
	return err
}

// Build is shorthand for NewBuilder(s).Build(ctx, toc).
func Build(ctx context.Context, s *Startup, toc archive.TOC) (*Config, error) {
	return NewBuilder(s).Build(ctx, toc)
}

// Build extracts the runtime options from toc, pre-initializes the runtime
// and returns a fully populated config. On failure the config is released
// and nil is returned. A Builder can run only once.
func (b *Builder) Build(ctx context.Context, toc archive.TOC) (*Config, error) {
	if b.used {
		return nil, errors.InvalidInput(errors.PhaseLifecycle, "builder already used")
	}
	b.used = true

	s := b.s
	if err := s.Validate(); err != nil {
		return nil, b.fail(err)
	}
	b.log = b.log.With(zap.Stringer("version", s.Version), zap.String("platform", s.Platform.Name))

	if _, err := TableFor(s.Platform).Lookup(s.Version); err != nil {
		return nil, b.fail(err)
	}

	opts, err := options.Extract(toc, s.Platform.Encoding())
	if err != nil {
		return nil, b.fail(err)
	}
	b.advance(StateOptionsExtracted)
	b.log.Debug("runtime options",
		zap.Uint("verbose", opts.Verbose),
		zap.Uint("optimize", opts.Optimize),
		zap.Bool("unbuffered", opts.Unbuffered),
		zap.Bool("use_hash_seed", opts.UseHashSeed),
		zap.Stringer("utf8_mode", opts.UTF8Mode),
		zap.Bool("dev_mode", opts.DevMode),
		zap.Int("warn_flags", len(opts.WarnFlags)),
		zap.Int("x_flags", len(opts.XFlags)))

	if err := PreInitialize(ctx, s, opts); err != nil {
		options.Free(opts)
		return nil, b.fail(err)
	}
	b.advance(StatePreInitialized)

	cfg, err := Allocate(ctx, s)
	if err != nil {
		options.Free(opts)
		return nil, b.fail(err)
	}
	b.advance(StateConfigAllocated)

	steps := []struct {
		run func() error
		to  State
	}{
		{func() error { return SetProgramName(ctx, s, cfg) }, StateProgramNameSet},
		{func() error { return SetHome(ctx, s, cfg) }, StateHomeSet},
		{func() error { return SetModuleSearchPaths(ctx, s, cfg) }, StateSearchPathsSet},
		{func() error { return SetArgv(ctx, s, cfg) }, StateArgvSet},
		{func() error {
			defer options.Free(opts)
			return SetRuntimeOptions(ctx, s, cfg, opts)
		}, StateRuntimeOptionsSet},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			options.Free(opts)
			b.teardown(ctx, cfg)
			return nil, b.fail(err)
		}
		b.advance(step.to)
	}

	b.advance(StateReadyForInit)
	return cfg, nil
}

func (b *Builder) teardown(ctx context.Context, cfg *Config) {
	if err := cfg.Free(ctx); err != nil {
		b.log.Warn("config teardown failed", zap.Error(err))
	}
}
