package cacheservice

import (
	"context"
	"errors"
	"testing"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/config"
)

// countingMiddleware counts the calls to Store that reach it.
type countingMiddleware struct {
	Service

	stores *int
}

func (mw countingMiddleware) Store(ctx context.Context, key, value any) error {
	*mw.stores++

	return mw.Service.Store(ctx, key, value)
}

func (mw countingMiddleware) Unwrap() Service { return mw.Service } //nolint:ireturn

func installSource(t *testing.T) config.MapSource {
	t.Helper()

	document := writeDocument(t, inMemoryDocument)

	return config.MapSource{
		"cache.config":                   document,
		"cache.name":                     "default-region",
		"shop.cache.config":              document,
		"shop.cache.name":                "shop-region",
		"shop.cache.cacheMode":           "fifo",
		"shop.cache.maxEntries":          "1",
		"cache.sessions.config":          document,
		"cache.sessions.name":            "sessions-region",
		"cache.sessions.cacheMode":       "UNLIMITED",
		"cache.sessions.maxEntries":      "5000",
		"cache.sessions.replicationMode": "LOCAL",
	}
}

func TestRegistry_Install(t *testing.T) {
	ctx := context.Background()
	src := installSource(t)

	shop, err := AnnotatedWith("shop", "shop")
	assert.Nil(t, err)

	sessions, err := NamedInstance("sessions", "sessions")
	assert.Nil(t, err)

	stores := 0
	registry := NewRegistry(WithMiddleware(func(next Service) Service {
		return countingMiddleware{Service: next, stores: &stores}
	}))

	assert.Nil(t, registry.Install(ctx, src, NewFactory(), DefaultModule(), shop, sessions))
	assert.Equal(t, []string{"_default", "sessions", "shop"}, registry.Tokens())

	def, err := registry.Default()
	assert.Nil(t, err)
	assert.Equal(t, "default-region", def.Name())

	shopSvc, err := registry.Named("shop")
	assert.Nil(t, err)
	assert.Equal(t, "shop-region", shopSvc.Name())

	// shop is bounded to a single entry
	assert.Nil(t, shopSvc.Store(ctx, "a", 1))
	assert.Nil(t, shopSvc.Store(ctx, "b", 2))

	_, ok, err := shopSvc.Read(ctx, "a")
	assert.Nil(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, stores)

	sessionSvc, err := registry.Named("sessions")
	assert.Nil(t, err)

	inner, ok := Innermost(sessionSvc).(*CacheService)
	assert.True(t, ok)
	assert.Equal(t, 0, inner.Configuration().MaxEntries)

	// the caches are independent
	_, ok, _ = def.Read(ctx, "b")
	assert.False(t, ok)

	assert.Nil(t, registry.Shutdown(ctx))
	assert.Equal(t, StateClosed, shopSvc.State())
	assert.Equal(t, StateClosed, def.State())
	assert.Equal(t, 0, len(registry.Tokens()))
}

func TestRegistry_InstallRejectsDuplicateTokens(t *testing.T) {
	ctx := context.Background()
	src := installSource(t)

	registry := NewRegistry()

	err := registry.Install(ctx, src, NewFactory(), DefaultModule(), DefaultModule())
	assert.True(t, errors.Is(err, sentinel.ErrBindingExists))
	assert.Equal(t, 0, len(registry.Tokens()))

	assert.Nil(t, registry.Install(ctx, src, NewFactory(), DefaultModule()))

	err = registry.Install(ctx, src, NewFactory(), DefaultModule())
	assert.True(t, errors.Is(err, sentinel.ErrBindingExists))

	assert.Nil(t, registry.Shutdown(ctx))
}

func TestRegistry_InstallFailureBindsNothing(t *testing.T) {
	ctx := context.Background()
	src := installSource(t)

	broken, err := AnnotatedWith("broken", "broken")
	assert.Nil(t, err)

	src["broken.cache.config"] = src["cache.config"]
	src["broken.cache.name"] = "broken-region"
	src["broken.cache.maxEntries"] = "-4"

	registry := NewRegistry()

	err = registry.Install(ctx, src, NewFactory(), DefaultModule(), broken)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidMaxEntries))
	assert.Equal(t, 0, len(registry.Tokens()))

	_, err = registry.Default()
	assert.True(t, errors.Is(err, sentinel.ErrBindingNotFound))
}

func TestRegistry_InstallLosesRaceToBind(t *testing.T) {
	ctx := context.Background()

	shop, err := AnnotatedWith("shop", "shop")
	assert.Nil(t, err)

	var (
		registry *Registry
		built    []Service
	)

	// takes the shop token while the install is still decorating its services
	registry = NewRegistry(WithMiddleware(func(next Service) Service {
		built = append(built, next)

		if len(built) == 1 {
			other, err := New(newRecordingCache("other-region"))
			assert.Nil(t, err)
			assert.Nil(t, registry.Bind("shop", other))
		}

		return next
	}))

	err = registry.Install(ctx, installSource(t), NewFactory(), DefaultModule(), shop)
	assert.True(t, errors.Is(err, sentinel.ErrBindingExists))
	assert.Equal(t, []string{"shop"}, registry.Tokens())

	_, err = registry.Default()
	assert.True(t, errors.Is(err, sentinel.ErrBindingNotFound))

	assert.Equal(t, 2, len(built))

	for _, svc := range built {
		assert.Equal(t, StateClosed, svc.State())
	}
}

func TestRegistry_InstallMissingSettings(t *testing.T) {
	registry := NewRegistry()

	err := registry.Install(context.Background(), config.MapSource{"cache.name": "orders"}, NewFactory(), DefaultModule())
	assert.True(t, errors.Is(err, sentinel.ErrParamCannotBeEmpty))

	err = registry.Install(context.Background(), config.MapSource{}, nil, DefaultModule())
	assert.True(t, errors.Is(err, sentinel.ErrInvalidArgument))
}

func TestRegistry_Bind(t *testing.T) {
	registry := NewRegistry()

	svc, err := New(newRecordingCache("orders"))
	assert.Nil(t, err)

	assert.Nil(t, registry.Bind("", svc))

	err = registry.Bind("_default", svc)
	assert.True(t, errors.Is(err, sentinel.ErrBindingExists))

	err = registry.Bind("other", nil)
	assert.True(t, errors.Is(err, sentinel.ErrNilCache))

	_, err = registry.Named("other")
	assert.True(t, errors.Is(err, sentinel.ErrBindingNotFound))

	got, err := registry.Named("")
	assert.Nil(t, err)
	assert.Equal(t, "orders", got.Name())
}
