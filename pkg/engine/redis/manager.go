// Package redis is a remote cache engine over Redis: standalone, sentinel failover or cluster.
//
// A region's entries are hashes named <prefix>:{<region>}:<key> holding the encoded value, the
// lifespan deadline and the idle time; the server expires them with PEXPIRE, refreshed on reads
// when an idle time is set. Bounded regions keep a sorted-set index, <prefix>:{<region>}#index,
// scored by insertion time (FIFO) or access time (LRU); writes trim it with ZPOPMIN. The hash tag
// keeps a region in one cluster slot. Synchronous replication modes follow every write with WAIT.
package redis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/constants"
	"github.com/hyp3rd/cacheservice/internal/libs/serializer"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
)

// Manager defines and starts Redis-backed regions. It implements engine.Manager.
type Manager struct {
	client     redis.UniversalClient
	ownsClient bool

	mu          sync.Mutex
	definitions map[string]engine.Configuration
	regions     map[string]*Region
	stopped     bool

	keyPrefix      string
	serializer     serializer.ISerializer
	types          *serializer.TypeRegistry
	nearMaxEntries int64
	nearTTL        time.Duration
	waitReplicas   int
	waitTimeout    time.Duration
	now            func() time.Time
	logger         zerolog.Logger
}

// NewManager creates a manager over client.
func NewManager(client redis.UniversalClient, opts ...Option) (*Manager, error) {
	if client == nil {
		return nil, sentinel.ErrNilClient
	}

	m := &Manager{
		client:       client,
		definitions:  make(map[string]engine.Configuration),
		regions:      make(map[string]*Region),
		keyPrefix:    constants.RedisKeyPrefix,
		types:        serializer.DefaultTypes(),
		nearTTL:      constants.RedisNearCacheTTL,
		waitReplicas: 1,
		waitTimeout:  constants.RedisWaitTimeout,
		now:          time.Now,
		logger:       zerolog.Nop(),
	}

	ApplyOptions(m, opts...)

	if m.serializer == nil {
		var err error

		m.serializer, err = serializer.New(serializer.Default)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RegisterValueType records the types of samples so that managers using the process-wide type
// registry read such values back with their Go type. Values of unregistered types come back in the
// serializer's generic form (maps for structs, the narrowest number type).
func RegisterValueType(samples ...any) { serializer.RegisterType(samples...) }

// Client returns the underlying client.
func (m *Manager) Client() redis.UniversalClient { return m.client }

// DefineConfiguration registers the configuration of the named region. Invalidation modes have no
// Redis counterpart and are rejected.
func (m *Manager) DefineConfiguration(name string, cfg engine.Configuration) error {
	if strings.TrimSpace(name) == "" {
		return ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "region name")
	}

	err := cfg.Validate()
	if err != nil {
		return err
	}

	if cfg.Mode == engine.InvalidationSync || cfg.Mode == engine.InvalidationAsync {
		return ewrap.Wrapf(sentinel.ErrReplicationModeNotSupported, "%s engine: %s", constants.RedisEngine, cfg.Mode)
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
		Str("mode", cfg.Mode.String()).
		Msg("region started")

	return region, nil
}

// Stop stops every region, and closes the client when the manager owns it. Stored data is kept.
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

	if m.ownsClient {
		return ewrap.Wrap(m.client.Close(), "closing redis client")
	}

	return nil
}

func (m *Manager) entryPrefix(region string) string {
	return m.keyPrefix + ":{" + region + "}:"
}

func (m *Manager) indexKey(region string) string {
	return m.keyPrefix + ":{" + region + "}#index"
}
