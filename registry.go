package cacheservice

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/hyp3rd/ewrap"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/constants"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/config"
)

// Registry is the composition root of a process: it holds the default service and the named ones.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]Service
	order    []string

	middleware []Middleware
	logger     zerolog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMiddleware decorates every service the registry installs.
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(r *Registry) {
		r.middleware = append(r.middleware, mw...)
	}
}

// WithRegistryLogger sets the logger of the registry.
func WithRegistryLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		bindings: make(map[string]Service),
		logger:   zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Install loads the settings of every module from src, builds the services eagerly and binds
// them. Tokens are checked before anything is built; when a build fails, the services already
// built by this call are closed and none of them is bound.
func (r *Registry) Install(ctx context.Context, src config.Source, factory *Factory, modules ...Module) error {
	if factory == nil {
		return ewrap.Wrap(sentinel.ErrInvalidArgument, "nil factory")
	}

	err := r.checkTokens(modules)
	if err != nil {
		return err
	}

	built := make([]Service, 0, len(modules))

	for _, m := range modules {
		svc, err := r.build(ctx, src, factory, m)
		if err != nil {
			for _, done := range built {
				_ = done.Close(ctx)
			}

			return err
		}

		built = append(built, ApplyMiddleware(svc, r.middleware...))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// a concurrent Bind may have taken a token while the services were built
	err = r.checkTokensLocked(modules)
	if err != nil {
		for _, done := range built {
			_ = done.Close(ctx)
		}

		return err
	}

	for i, m := range modules {
		r.bindLocked(canonicalToken(m.Token), built[i])
	}

	return nil
}

func (r *Registry) build(ctx context.Context, src config.Source, factory *Factory, m Module) (*CacheService, error) {
	settings, err := config.Load(src, m.Keys)
	if err != nil {
		return nil, ewrap.Wrapf(err, "module %s", m)
	}

	svc, err := factory.Build(ctx, settings)
	if err != nil {
		return nil, ewrap.Wrapf(err, "module %s", m)
	}

	return svc, nil
}

func (r *Registry) checkTokens(modules []Module) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.checkTokensLocked(modules)
}

func (r *Registry) checkTokensLocked(modules []Module) error {
	seen := make(map[string]struct{}, len(modules))

	for _, m := range modules {
		token := canonicalToken(m.Token)

		if _, ok := r.bindings[token]; ok {
			return ewrap.Wrap(sentinel.ErrBindingExists, token)
		}

		if _, ok := seen[token]; ok {
			return ewrap.Wrap(sentinel.ErrBindingExists, token)
		}

		seen[token] = struct{}{}
	}

	return nil
}

// Bind exposes svc under token; an empty token or constants.DefaultBindingToken is the default binding.
func (r *Registry) Bind(token string, svc Service) error {
	if svc == nil {
		return sentinel.ErrNilCache
	}

	token = canonicalToken(token)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bindings[token]; ok {
		return ewrap.Wrap(sentinel.ErrBindingExists, token)
	}

	r.bindLocked(token, svc)

	return nil
}

func (r *Registry) bindLocked(token string, svc Service) {
	r.bindings[token] = svc
	r.order = append(r.order, token)

	r.logger.Info().Str("binding", token).Str("cache", svc.Name()).Msg("cache bound")
}

// Default returns the default service.
func (r *Registry) Default() (Service, error) {
	return r.Named(constants.DefaultBindingToken)
}

// Named returns the service bound under token.
func (r *Registry) Named(token string) (Service, error) {
	token = canonicalToken(token)

	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.bindings[token]
	if !ok {
		return nil, ewrap.Wrap(sentinel.ErrBindingNotFound, token)
	}

	return svc, nil
}

// Tokens returns the bound tokens, sorted; the default binding is constants.DefaultBindingToken.
func (r *Registry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.bindings))
	for token := range r.bindings {
		tokens = append(tokens, token)
	}

	slices.Sort(tokens)

	return tokens
}

// Shutdown closes every bound service in reverse binding order and empties the registry.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for _, token := range slices.Backward(r.order) {
		err := r.bindings[token].Close(ctx)
		if err != nil {
			errs = append(errs, ewrap.Wrapf(err, "closing %s", token))
		}

		r.logger.Info().Str("binding", token).Msg("cache closed")
	}

	r.bindings = make(map[string]Service)
	r.order = nil

	return errors.Join(errs...)
}

func canonicalToken(token string) string {
	if token == "" {
		return constants.DefaultBindingToken
	}

	return token
}
