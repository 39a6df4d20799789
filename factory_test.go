package cacheservice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/config"
	"github.com/hyp3rd/cacheservice/pkg/engine"
	"github.com/hyp3rd/cacheservice/pkg/engine/bootstrap"
	"github.com/hyp3rd/cacheservice/pkg/eviction"
)

const inMemoryDocument = `
engine: in-memory
inMemory:
  reapInterval: 0s
caches:
  predefined:
    eviction: LRU
    maxEntries: 5
`

func writeDocument(t *testing.T, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "cache.yaml")
	assert.Nil(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

func ptr[T any](v T) *T { return &v }

func TestEngineConfiguration(t *testing.T) {
	tests := []struct {
		name      string
		overrides Overrides
		expected  engine.Configuration
		err       error
	}{
		{
			name:     "defaults",
			expected: engine.Configuration{Eviction: engine.EvictionNone, Mode: engine.Local},
		},
		{
			name:      "lru bound",
			overrides: Overrides{CacheMode: ptr(eviction.LRU), MaxEntries: ptr(100)},
			expected:  engine.Configuration{Eviction: engine.EvictionLRU, MaxEntries: 100},
		},
		{
			name:      "fifo with replication",
			overrides: Overrides{CacheMode: ptr(eviction.FIFO), MaxEntries: ptr(3), ReplicationMode: ptr("repl_sync")},
			expected:  engine.Configuration{Eviction: engine.EvictionFIFO, MaxEntries: 3, Mode: engine.ReplSync},
		},
		{
			name:      "unlimited ignores max entries",
			overrides: Overrides{CacheMode: ptr(eviction.Unlimited), MaxEntries: ptr(10)},
			expected:  engine.Configuration{Eviction: engine.EvictionNone},
		},
		{
			name:      "max entries without strategy",
			overrides: Overrides{MaxEntries: ptr(7)},
			expected:  engine.Configuration{MaxEntries: 7},
		},
		{
			name:      "negative max entries",
			overrides: Overrides{MaxEntries: ptr(-1)},
			err:       sentinel.ErrInvalidMaxEntries,
		},
		{
			name:      "unknown strategy",
			overrides: Overrides{CacheMode: ptr(eviction.Strategy(12))},
			err:       sentinel.ErrUnknownStrategy,
		},
		{
			name:      "unknown replication mode",
			overrides: Overrides{ReplicationMode: ptr("SCATTERED_SYNC")},
			err:       sentinel.ErrUnsupportedOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := EngineConfiguration(tt.overrides)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err))

				return
			}

			assert.Nil(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestFactory_Build(t *testing.T) {
	factory := NewFactory(WithFactoryLogger(zerolog.Nop()))
	ctx := context.Background()

	svc, err := factory.Build(ctx, config.Settings{
		Config:     writeDocument(t, inMemoryDocument),
		Name:       "orders",
		CacheMode:  ptr(eviction.FIFO),
		MaxEntries: ptr(2),
	})
	assert.Nil(t, err)

	defer func() { _ = svc.Close(ctx) }()

	assert.Equal(t, "orders", svc.Name())
	assert.Equal(t, StateInitialized, svc.State())
	assert.Equal(t, engine.Configuration{Eviction: engine.EvictionFIFO, MaxEntries: 2}, svc.Configuration())

	assert.Nil(t, svc.Store(ctx, 1, "one"))
	assert.Nil(t, svc.Store(ctx, 2, "two"))
	assert.Nil(t, svc.Store(ctx, 3, "three"))

	_, ok, err := svc.Read(ctx, 1)
	assert.Nil(t, err)
	assert.False(t, ok)
}

func TestFactory_BuildUnlimitedNeverEvicts(t *testing.T) {
	ctx := context.Background()

	svc, err := NewFactory().Build(ctx, config.Settings{
		Config:     writeDocument(t, inMemoryDocument),
		Name:       "orders",
		CacheMode:  ptr(eviction.Unlimited),
		MaxEntries: ptr(2),
	})
	assert.Nil(t, err)

	defer func() { _ = svc.Close(ctx) }()

	for i := range 50 {
		assert.Nil(t, svc.Store(ctx, i, i))
	}

	for i := range 50 {
		v, ok, err := svc.Read(ctx, i)
		assert.Nil(t, err)
		assert.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func liveEntries(t *testing.T, svc Service, n int) int {
	t.Helper()

	live := 0

	for i := range n {
		_, ok, err := svc.Read(context.Background(), i)
		assert.Nil(t, err)

		if ok {
			live++
		}
	}

	return live
}

func TestFactory_BuildKeepsPredefinedRegion(t *testing.T) {
	ctx := context.Background()

	svc, err := NewFactory().Build(ctx, config.Settings{Config: writeDocument(t, inMemoryDocument), Name: "predefined"})
	assert.Nil(t, err)

	defer func() { _ = svc.Close(ctx) }()

	assert.Equal(t, engine.Configuration{Eviction: engine.EvictionLRU, MaxEntries: 5}, svc.Configuration())

	for i := range 20 {
		assert.Nil(t, svc.Store(ctx, i, i))
	}

	assert.Equal(t, 5, liveEntries(t, svc, 20))
}

func TestFactory_BuildMergesOverridesOntoPredefinedRegion(t *testing.T) {
	ctx := context.Background()
	document := writeDocument(t, inMemoryDocument)

	tests := []struct {
		name     string
		settings config.Settings
		expected engine.Configuration
	}{
		{
			name:     "max entries keeps the strategy",
			settings: config.Settings{Config: document, Name: "predefined", MaxEntries: ptr(2)},
			expected: engine.Configuration{Eviction: engine.EvictionLRU, MaxEntries: 2},
		},
		{
			name:     "strategy keeps the bound",
			settings: config.Settings{Config: document, Name: "predefined", CacheMode: ptr(eviction.FIFO)},
			expected: engine.Configuration{Eviction: engine.EvictionFIFO, MaxEntries: 5},
		},
		{
			name:     "unlimited clears the bound",
			settings: config.Settings{Config: document, Name: "predefined", CacheMode: ptr(eviction.Unlimited)},
			expected: engine.Configuration{Eviction: engine.EvictionNone},
		},
		{
			name:     "undefined region starts from the defaults",
			settings: config.Settings{Config: document, Name: "orders"},
			expected: engine.DefaultConfiguration(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewFactory().Build(ctx, tt.settings)
			assert.Nil(t, err)

			defer func() { _ = svc.Close(ctx) }()

			assert.Equal(t, tt.expected, svc.Configuration())
		})
	}
}

func TestFactory_BuildErrors(t *testing.T) {
	ctx := context.Background()
	document := writeDocument(t, inMemoryDocument)

	tests := []struct {
		name     string
		settings config.Settings
		expected error
	}{
		{name: "missing config", settings: config.Settings{Name: "orders"}, expected: sentinel.ErrParamCannotBeEmpty},
		{name: "missing name", settings: config.Settings{Config: document}, expected: sentinel.ErrParamCannotBeEmpty},
		{
			name:     "negative max entries",
			settings: config.Settings{Config: document, Name: "orders", MaxEntries: ptr(-3)},
			expected: sentinel.ErrInvalidMaxEntries,
		},
		{
			name:     "unknown replication mode",
			settings: config.Settings{Config: document, Name: "orders", ReplicationMode: ptr("GOSSIP")},
			expected: sentinel.ErrUnknownReplicationMode,
		},
		{
			name:     "unreadable bootstrap document",
			settings: config.Settings{Config: filepath.Join(t.TempDir(), "missing.yaml"), Name: "orders"},
			expected: sentinel.ErrBootstrapUnreadable,
		},
		{
			name:     "unknown engine",
			settings: config.Settings{Config: writeDocument(t, "engine: memcached\n"), Name: "orders"},
			expected: sentinel.ErrDriverNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory().Build(ctx, tt.settings)
			assert.True(t, errors.Is(err, tt.expected))
		})
	}
}

func TestFactory_CustomDriver(t *testing.T) {
	manager := newRecordingManager()

	drivers := bootstrap.NewEmptyRegistry()
	drivers.Register("recording", func(context.Context, bootstrap.Document, zerolog.Logger) (engine.Manager, error) {
		return manager, nil
	})

	exp, err := NewExpiration(time.Minute, 0)
	assert.Nil(t, err)

	factory := NewFactory(WithDrivers(drivers), WithServiceOptions(WithDefaultExpiration(exp)))
	ctx := context.Background()

	svc, err := factory.Build(ctx, config.Settings{
		Config:          writeDocument(t, "engine: recording\n"),
		Name:            "orders",
		ReplicationMode: ptr("DIST_ASYNC"),
	})
	assert.Nil(t, err)
	assert.Equal(t, engine.DistAsync, manager.defined["orders"].Mode)
	assert.Equal(t, time.Minute, svc.MaxAge())

	assert.Nil(t, svc.Store(ctx, "k", "v"))
	assert.Equal(t, time.Minute, manager.caches["orders"].lastPut().lifespan)

	assert.Nil(t, svc.Close(ctx))
	assert.Equal(t, 1, manager.stopped)
}

func TestFactory_FailedInitializeStopsEngine(t *testing.T) {
	manager := newRecordingManager()
	manager.failOn = "orders"

	drivers := bootstrap.NewEmptyRegistry()
	drivers.Register("recording", func(context.Context, bootstrap.Document, zerolog.Logger) (engine.Manager, error) {
		return manager, nil
	})

	_, err := NewFactory(WithDrivers(drivers)).Build(context.Background(), config.Settings{
		Config: writeDocument(t, "engine: recording\n"),
		Name:   "orders",
	})
	assert.True(t, errors.Is(err, sentinel.ErrRegionRunning))
	assert.Equal(t, 1, manager.stopped)
}

func TestFactory_FromEngine(t *testing.T) {
	cache := newRecordingCache("orders")

	svc, err := NewFactory().FromEngine(cache, Overrides{CacheMode: ptr(eviction.LRU)})
	assert.Nil(t, err)
	assert.Equal(t, "orders", svc.Name())
	assert.Equal(t, StateInitialized, svc.State())

	_, err = NewFactory().FromEngine(cache, Overrides{MaxEntries: ptr(-1)})
	assert.True(t, errors.Is(err, sentinel.ErrInvalidMaxEntries))

	_, err = NewFactory().FromEngine(nil, Overrides{})
	assert.True(t, errors.Is(err, sentinel.ErrNilCache))
}
