// Package cacheservice is an engine-neutral cache service: a small store/read/remove/clear
// contract with per-entry lifespan and idle expiration, eviction strategies mapped onto the
// engine at a single boundary, and a composition layer that binds one default and any number of
// named, independently configured cache instances.
package cacheservice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/keycodec"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
)

// State is the lifecycle state of a CacheService.
type State int32

const (
	// StateUninitialized services wait for Initialize to start their engine region.
	StateUninitialized State = iota
	// StateInitialized services serve requests.
	StateInitialized
	// StateClosed services reject every operation.
	StateClosed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateInitialized:
		return "INITIALIZED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// CacheService serves the Service contract over one engine region. It adds no locking of its
// own around data operations: atomicity per key is the engine's.
type CacheService struct {
	name    string
	cache   engine.Cache
	manager engine.Manager // set for bootstrapped services, which own it
	cfg     engine.Configuration

	state      atomic.Int32
	lifecycle  sync.Mutex
	defaultExp atomic.Pointer[Expiration]

	codec  keycodec.Codec
	logger zerolog.Logger
}

// Option is a function type that can be used to configure the `CacheService`.
type Option func(*CacheService)

// ApplyOptions applies the given options to the given service.
func ApplyOptions(svc *CacheService, options ...Option) {
	for _, option := range options {
		option(svc)
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(logger zerolog.Logger) Option {
	return func(svc *CacheService) {
		svc.logger = logger
	}
}

// WithDefaultExpiration sets the policy Store applies. The default is eternal.
func WithDefaultExpiration(exp Expiration) Option {
	return func(svc *CacheService) {
		svc.defaultExp.Store(&exp)
	}
}

// WithKeyCodec replaces the key codec.
func WithKeyCodec(codec keycodec.Codec) Option {
	return func(svc *CacheService) {
		if codec != nil {
			svc.codec = codec
		}
	}
}

func newService(opts ...Option) *CacheService {
	svc := &CacheService{
		codec:  keycodec.New(),
		logger: zerolog.Nop(),
	}

	eternal := DefaultExpiration
	svc.defaultExp.Store(&eternal)

	ApplyOptions(svc, opts...)

	return svc
}

// New wraps a started engine handle. The service is initialized; Close stops the handle.
func New(cache engine.Cache, opts ...Option) (*CacheService, error) {
	if cache == nil {
		return nil, sentinel.ErrNilCache
	}

	svc := newService(opts...)
	svc.name = cache.Name()
	svc.cache = cache

	if configured, ok := cache.(interface{ Configuration() engine.Configuration }); ok {
		svc.cfg = configured.Configuration()
	}
	svc.state.Store(int32(StateInitialized))

	return svc, nil
}

// NewBootstrapped prepares a service whose region is defined with cfg and started by Initialize.
// The service owns manager and stops it on Close.
func NewBootstrapped(manager engine.Manager, name string, cfg engine.Configuration, opts ...Option) (*CacheService, error) {
	if manager == nil {
		return nil, sentinel.ErrNilCache
	}

	if strings.TrimSpace(name) == "" {
		return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "cache name")
	}

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	svc := newService(opts...)
	svc.name = name
	svc.manager = manager
	svc.cfg = cfg

	return svc, nil
}

// Initialize defines and starts the engine region. It is valid once, on an uninitialized service;
// on failure the service stays uninitialized.
func (svc *CacheService) Initialize(ctx context.Context) error {
	svc.lifecycle.Lock()
	defer svc.lifecycle.Unlock()

	switch State(svc.state.Load()) {
	case StateInitialized:
		return sentinel.ErrAlreadyInitialized
	case StateClosed:
		return sentinel.ErrClosed
	case StateUninitialized:
	}

	svc.logger.Debug().
		Str("cache", svc.name).
		Str("eviction", svc.cfg.Eviction.String()).
		Int("maxEntries", svc.cfg.MaxEntries).
		Str("mode", svc.cfg.Mode.String()).
		Msg("initializing cache")

	err := svc.manager.DefineConfiguration(svc.name, svc.cfg)
	if err != nil {
		return err
	}

	cache, err := svc.manager.Cache(ctx, svc.name)
	if err != nil {
		return err
	}

	svc.cache = cache
	svc.state.Store(int32(StateInitialized))

	return nil
}

// Close stops the engine region, and the engine manager of a bootstrapped service. It is idempotent.
func (svc *CacheService) Close(ctx context.Context) error {
	svc.lifecycle.Lock()
	defer svc.lifecycle.Unlock()

	if State(svc.state.Swap(int32(StateClosed))) == StateClosed {
		return nil
	}

	var errs []error

	if svc.cache != nil {
		errs = append(errs, svc.cache.Stop(ctx))
	}

	if svc.manager != nil {
		errs = append(errs, svc.manager.Stop(ctx))
	}

	svc.logger.Debug().Str("cache", svc.name).Msg("cache closed")

	return errors.Join(errs...)
}

// Store writes value under key with the default expiration.
func (svc *CacheService) Store(ctx context.Context, key, value any) error {
	err := svc.ready()
	if err != nil {
		return err
	}

	ekey, err := svc.codec.Encode(key)
	if err != nil {
		return err
	}

	exp := svc.DefaultExpiration()
	if exp.IsEternal() {
		return svc.cache.Put(ctx, ekey, value)
	}

	return svc.put(ctx, ekey, value, exp)
}

// StoreWithExpiration writes value under key with exp. The default expiration is left unchanged.
func (svc *CacheService) StoreWithExpiration(ctx context.Context, key, value any, exp Expiration) error {
	err := svc.ready()
	if err != nil {
		return err
	}

	ekey, err := svc.codec.Encode(key)
	if err != nil {
		return err
	}

	err = exp.Validate()
	if err != nil {
		return err
	}

	return svc.put(ctx, ekey, value, exp)
}

// Read returns the live value stored under key.
func (svc *CacheService) Read(ctx context.Context, key any) (any, bool, error) {
	err := svc.ready()
	if err != nil {
		return nil, false, err
	}

	ekey, err := svc.codec.Encode(key)
	if err != nil {
		return nil, false, err
	}

	return svc.cache.Get(ctx, ekey)
}

// Remove deletes key and returns the value it held. Removing a missing key is not an error.
func (svc *CacheService) Remove(ctx context.Context, key any) (any, bool, error) {
	err := svc.ready()
	if err != nil {
		return nil, false, err
	}

	ekey, err := svc.codec.Encode(key)
	if err != nil {
		return nil, false, err
	}

	return svc.cache.Remove(ctx, ekey)
}

// Clear removes every entry of the region.
func (svc *CacheService) Clear(ctx context.Context) error {
	err := svc.ready()
	if err != nil {
		return err
	}

	return svc.cache.Clear(ctx)
}

// MaxAge returns the lifespan of the default expiration; zero means eternal.
func (svc *CacheService) MaxAge() time.Duration {
	return svc.DefaultExpiration().LifeTime()
}

// MaxAgeIn returns MaxAge as a whole number of unit.
func (svc *CacheService) MaxAgeIn(unit time.Duration) int64 {
	return svc.DefaultExpiration().LifeTimeIn(unit)
}

// SetMaxAge replaces the lifespan of the default expiration, keeping its idle time. Stored
// entries keep the expiration they were written with. A Store racing with SetMaxAge may use
// either policy; pass an explicit Expiration when that matters.
func (svc *CacheService) SetMaxAge(maxAge time.Duration) error {
	exp, err := svc.DefaultExpiration().WithLifeTime(maxAge)
	if err != nil {
		return err
	}

	svc.defaultExp.Store(&exp)

	return nil
}

// DefaultExpiration returns the policy Store applies.
func (svc *CacheService) DefaultExpiration() Expiration {
	return *svc.defaultExp.Load()
}

// SetDefaultExpiration replaces the policy Store applies.
func (svc *CacheService) SetDefaultExpiration(exp Expiration) error {
	err := exp.Validate()
	if err != nil {
		return err
	}

	svc.defaultExp.Store(&exp)

	return nil
}

// Name returns the cache name.
func (svc *CacheService) Name() string { return svc.name }

// State returns the lifecycle state.
func (svc *CacheService) State() State { return State(svc.state.Load()) }

// Configuration returns the engine configuration of the region, when known.
func (svc *CacheService) Configuration() engine.Configuration { return svc.cfg }

func (svc *CacheService) ready() error {
	switch State(svc.state.Load()) {
	case StateInitialized:
		return nil
	case StateClosed:
		return sentinel.ErrClosed
	default:
		return sentinel.ErrNotInitialized
	}
}

// put translates the "zero is eternal" convention of Expiration into the engine's.
func (svc *CacheService) put(ctx context.Context, key string, value any, exp Expiration) error {
	return svc.cache.PutWithExpiration(ctx, key, value, engineDuration(exp.LifeTime()), engineDuration(exp.IdleTime()))
}

func engineDuration(d time.Duration) time.Duration {
	if d == 0 {
		return engine.Eternal
	}

	return d
}
