// Package inmemory is an embedded cache engine. Regions live in process memory, in a sharded map,
// bounded by an LRU or FIFO ordering when configured, with per-entry lifespan and idle expiry.
// Only the LOCAL replication mode is available.
package inmemory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/constants"
	"github.com/hyp3rd/cacheservice/internal/evictor"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
)

// Manager defines and starts in-memory regions. It implements engine.Manager.
type Manager struct {
	mu          sync.Mutex
	definitions map[string]engine.Configuration
	regions     map[string]*Region
	stopped     bool

	algorithms   *evictor.AlgorithmRegistry
	now          func() time.Time
	reapInterval time.Duration
	logger       zerolog.Logger
}

// NewManager creates a manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		definitions:  make(map[string]engine.Configuration),
		regions:      make(map[string]*Region),
		algorithms:   evictor.NewAlgorithmRegistry(),
		now:          time.Now,
		reapInterval: constants.DefaultReapInterval,
		logger:       zerolog.Nop(),
	}

	ApplyOptions(m, opts...)

	return m
}

// DefineConfiguration registers the configuration of the named region.
func (m *Manager) DefineConfiguration(name string, cfg engine.Configuration) error {
	if strings.TrimSpace(name) == "" {
		return ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "region name")
	}

	err := cfg.Validate()
	if err != nil {
		return err
	}

	if cfg.Mode != engine.Local {
		return ewrap.Wrapf(sentinel.ErrReplicationModeNotSupported, "%s engine: %s", constants.InMemoryEngine, cfg.Mode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return sentinel.ErrClosed
	}

	if region, ok := m.regions[name]; ok && !region.stopped.Load() {
		return ewrap.Wrap(sentinel.ErrRegionRunning, name)
	}

	m.definitions[name] = cfg

	return nil
}

// Definition returns the configuration defined for the named region, if any.
func (m *Manager) Definition(name string) (engine.Configuration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.definitions[name]

	return cfg, ok
}

// Cache returns the named region, starting it on first use.
func (m *Manager) Cache(_ context.Context, name string) (engine.Cache, error) {
	region, err := m.Region(name)
	if err != nil {
		return nil, err
	}

	return region, nil
}

// Region is Cache with the concrete region type.
func (m *Manager) Region(name string) (*Region, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "region name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil, sentinel.ErrClosed
	}

	// a region stopped through its own handle is started afresh
	if region, ok := m.regions[name]; ok && !region.stopped.Load() {
		return region, nil
	}

	cfg, ok := m.definitions[name]
	if !ok {
		cfg = engine.DefaultConfiguration()
	}

	region, err := newRegion(name, cfg, m)
	if err != nil {
		return nil, err
	}

	m.regions[name] = region

	m.logger.Debug().
		Str("region", name).
		Str("eviction", cfg.Eviction.String()).
		Int("maxEntries", cfg.MaxEntries).
		Msg("region started")

	return region, nil
}

// Stop stops every region. The manager cannot be used afterwards.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil
	}

	m.stopped = true

	for name, region := range m.regions {
		_ = region.Stop(ctx)

		delete(m.regions, name)
	}

	return nil
}
