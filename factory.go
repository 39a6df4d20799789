package cacheservice

import (
	"context"

	"github.com/hyp3rd/ewrap"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/config"
	"github.com/hyp3rd/cacheservice/pkg/engine"
	"github.com/hyp3rd/cacheservice/pkg/engine/bootstrap"
	"github.com/hyp3rd/cacheservice/pkg/eviction"
)

// Overrides are the optional engine settings of a cache. Nil fields keep the region's predefined
// configuration, or the engine defaults (no eviction, no bound, LOCAL replication) when the
// bootstrap document defines none.
type Overrides struct {
	CacheMode       *eviction.Strategy
	ReplicationMode *string
	MaxEntries      *int
}

// OverridesFrom returns the optional fields of s.
func OverridesFrom(s config.Settings) Overrides {
	return Overrides{CacheMode: s.CacheMode, ReplicationMode: s.ReplicationMode, MaxEntries: s.MaxEntries}
}

// EngineConfiguration validates o and translates it into an engine configuration over the
// engine defaults.
func EngineConfiguration(o Overrides) (engine.Configuration, error) {
	return o.Apply(engine.DefaultConfiguration())
}

// Apply validates o and returns base with the set fields of o replacing their counterparts.
// The Unlimited strategy clears MaxEntries.
func (o Overrides) Apply(base engine.Configuration) (engine.Configuration, error) {
	cfg := base

	if o.MaxEntries != nil {
		if *o.MaxEntries < 0 {
			return engine.Configuration{}, ewrap.Wrapf(sentinel.ErrInvalidMaxEntries, "%d", *o.MaxEntries)
		}

		cfg.MaxEntries = *o.MaxEntries
	}

	if o.CacheMode != nil {
		policy, err := ToEngineStrategy(*o.CacheMode)
		if err != nil {
			return engine.Configuration{}, err
		}

		cfg.Eviction = policy

		if *o.CacheMode == eviction.Unlimited {
			cfg.MaxEntries = 0
		}
	}

	if o.ReplicationMode != nil {
		mode, err := ToEngineReplicationMode(*o.ReplicationMode)
		if err != nil {
			return engine.Configuration{}, err
		}

		cfg.Mode = mode
	}

	return cfg, nil
}

// Factory builds cache services from settings.
type Factory struct {
	drivers        *bootstrap.Registry
	logger         zerolog.Logger
	serviceOptions []Option
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithDrivers sets the engine driver registry bootstrap handles are opened with.
func WithDrivers(drivers *bootstrap.Registry) FactoryOption {
	return func(f *Factory) {
		if drivers != nil {
			f.drivers = drivers
		}
	}
}

// WithFactoryLogger sets the logger of the factory. Built services log through it as well,
// unless WithServiceOptions overrides that.
func WithFactoryLogger(logger zerolog.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithServiceOptions sets options applied to every built service.
func WithServiceOptions(opts ...Option) FactoryOption {
	return func(f *Factory) {
		f.serviceOptions = append(f.serviceOptions, opts...)
	}
}

// NewFactory creates a factory. Without WithDrivers the in-memory and redis engines are available.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{logger: zerolog.Nop()}

	for _, opt := range opts {
		opt(f)
	}

	if f.drivers == nil {
		f.drivers = bootstrap.NewRegistry(bootstrap.WithLogger(f.logger))
	}

	return f
}

// Build opens the engine named by s.Config and returns an initialized service over the region
// s.Name. The settings overrides are merged onto the region's predefined configuration. Every
// validation runs before the engine is opened; nothing is left running on failure.
func (f *Factory) Build(ctx context.Context, s config.Settings) (*CacheService, error) {
	err := s.Validate()
	if err != nil {
		return nil, err
	}

	overrides := OverridesFrom(s)

	_, err = EngineConfiguration(overrides)
	if err != nil {
		return nil, err
	}

	manager, err := f.drivers.Open(ctx, s.Config)
	if err != nil {
		return nil, err
	}

	base, ok := manager.Definition(s.Name)
	if !ok {
		base = engine.DefaultConfiguration()
	}

	cfg, err := overrides.Apply(base)
	if err != nil {
		_ = manager.Stop(ctx)

		return nil, err
	}

	svc, err := NewBootstrapped(manager, s.Name, cfg, f.options()...)
	if err != nil {
		_ = manager.Stop(ctx)

		return nil, err
	}

	err = svc.Initialize(ctx)
	if err != nil {
		_ = manager.Stop(ctx)

		return nil, err
	}

	f.logger.Info().
		Str("cache", s.Name).
		Str("config", s.Config).
		Str("eviction", cfg.Eviction.String()).
		Int("maxEntries", cfg.MaxEntries).
		Str("mode", cfg.Mode.String()).
		Msg("cache built")

	return svc, nil
}

// FromEngine returns an initialized service over a started engine handle. The overrides are
// validated the way Build validates them; the handle keeps its own configuration.
func (f *Factory) FromEngine(cache engine.Cache, o Overrides) (*CacheService, error) {
	_, err := EngineConfiguration(o)
	if err != nil {
		return nil, err
	}

	return New(cache, f.options()...)
}

func (f *Factory) options() []Option {
	return append([]Option{WithLogger(f.logger)}, f.serviceOptions...)
}
