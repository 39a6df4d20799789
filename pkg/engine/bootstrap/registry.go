package bootstrap

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/hyp3rd/ewrap"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/constants"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
)

// Driver opens an engine manager from a validated document.
type Driver func(ctx context.Context, doc Document, logger zerolog.Logger) (engine.Manager, error)

// Registry manages engine drivers by name.
type Registry struct {
	mu         sync.RWMutex
	drivers    map[string]Driver
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithHTTPClient sets the client remote documents are fetched with.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Registry) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// WithLogger sets the logger handed to drivers.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// getDefaultDrivers returns the default set of drivers.
func getDefaultDrivers() map[string]Driver {
	return map[string]Driver{
		constants.InMemoryEngine: openInMemory,
		constants.RedisEngine:    openRedis,
	}
}

// NewRegistry creates a registry with the in-memory and redis drivers registered.
func NewRegistry(opts ...Option) *Registry {
	r := NewEmptyRegistry(opts...)
	r.RegisterMultiple(getDefaultDrivers())

	return r
}

// NewEmptyRegistry creates a registry without drivers.
func NewEmptyRegistry(opts ...Option) *Registry {
	r := &Registry{
		drivers:    make(map[string]Driver),
		httpClient: &http.Client{Timeout: constants.DefaultBootstrapFetchTimeout},
		logger:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register registers a driver. Names are case-insensitive.
func (r *Registry) Register(name string, driver Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drivers[strings.ToLower(name)] = driver
}

// RegisterMultiple registers several drivers at once.
func (r *Registry) RegisterMultiple(drivers map[string]Driver) {
	for name, driver := range drivers {
		r.Register(name, driver)
	}
}

// Drivers returns the registered driver names.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}

	return names
}

// Open loads the document at location and opens its engine.
func (r *Registry) Open(ctx context.Context, location string) (engine.Manager, error) {
	doc, err := r.Load(ctx, location)
	if err != nil {
		return nil, err
	}

	return r.OpenDocument(ctx, doc)
}

// OpenDocument opens the engine a document names and defines its predefined regions.
// The manager is stopped again when a region cannot be defined.
func (r *Registry) OpenDocument(ctx context.Context, doc Document) (engine.Manager, error) {
	err := doc.Validate()
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	driver, ok := r.drivers[doc.Engine]
	r.mu.RUnlock()

	if !ok {
		return nil, ewrap.Wrap(sentinel.ErrDriverNotFound, doc.Engine)
	}

	manager, err := driver(ctx, doc, r.logger)
	if err != nil {
		return nil, err
	}

	for name, cfg := range doc.Caches {
		err = manager.DefineConfiguration(name, cfg)
		if err != nil {
			_ = manager.Stop(ctx)

			return nil, ewrap.Wrapf(sentinel.ErrBootstrapInvalid, "cache %q: %v", name, err)
		}
	}

	r.logger.Debug().Str("engine", doc.Engine).Int("caches", len(doc.Caches)).Msg("engine opened")

	return manager, nil
}

// Open loads the document at location and opens its engine with the default drivers.
func Open(ctx context.Context, location string) (engine.Manager, error) {
	return NewRegistry().Open(ctx, location)
}
