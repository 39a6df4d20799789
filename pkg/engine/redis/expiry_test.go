package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
)

func TestNewExpiry(t *testing.T) {
	now := time.UnixMilli(1_000_000)

	_, live := newExpiry(now, 0, engine.Eternal)
	assert.False(t, live)

	_, live = newExpiry(now, engine.Eternal, 0)
	assert.False(t, live)

	exp, live := newExpiry(now, engine.Eternal, engine.Eternal)
	assert.True(t, live)
	assert.Equal(t, expiry{}, exp)
	assert.Equal(t, time.Duration(0), exp.ttl(now))

	exp, live = newExpiry(now, 10*time.Second, engine.Eternal)
	assert.True(t, live)
	assert.Equal(t, int64(1_010_000), exp.deadline)
	assert.Equal(t, 10*time.Second, exp.ttl(now))
	assert.False(t, exp.expired(now.Add(9*time.Second)))
	assert.True(t, exp.expired(now.Add(10*time.Second)))
}

func TestExpiry_TTLIsTheNearerBound(t *testing.T) {
	now := time.UnixMilli(5_000)

	exp, _ := newExpiry(now, time.Minute, 5*time.Second)
	assert.Equal(t, 5*time.Second, exp.ttl(now))
	assert.Equal(t, 2*time.Second, exp.ttl(now.Add(58*time.Second)))

	exp, _ = newExpiry(now, engine.Eternal, 5*time.Second)
	assert.Equal(t, 5*time.Second, exp.ttl(now.Add(time.Hour)))
}

func TestMillis_RoundsUp(t *testing.T) {
	assert.Equal(t, int64(1), millis(time.Microsecond))
	assert.Equal(t, int64(2), millis(1500*time.Microsecond))
	assert.Equal(t, int64(3), millis(3*time.Millisecond))
}

func TestParseExpiry(t *testing.T) {
	exp := parseExpiry("1200", "300")
	assert.Equal(t, expiry{deadline: 1200, idle: 300}, exp)

	exp = parseExpiry(nil, "bogus")
	assert.Equal(t, expiry{}, exp)
}

func TestNewClient_RequiresAddrs(t *testing.T) {
	_, err := NewClient()
	assert.True(t, errors.Is(err, sentinel.ErrInvalidArgument))

	_, err = NewClient(WithAddrs("localhost:6379", ""))
	assert.True(t, errors.Is(err, sentinel.ErrParamCannotBeEmpty))

	client, err := NewClient(WithAddrs("localhost:6379"), WithDB(2), WithPassword("secret"))
	assert.Nil(t, err)
	assert.Nil(t, client.Close())
}

func TestNewManager(t *testing.T) {
	_, err := NewManager(nil)
	assert.True(t, errors.Is(err, sentinel.ErrNilClient))

	client, err := NewClient(WithAddrs("localhost:6379"))
	assert.Nil(t, err)

	m, err := NewManager(client, WithKeyPrefix("shop"), WithClientOwnership())
	assert.Nil(t, err)
	assert.Equal(t, "shop:{orders}:", m.entryPrefix("orders"))
	assert.Equal(t, "shop:{orders}#index", m.indexKey("orders"))

	err = m.DefineConfiguration("orders", engine.Configuration{Mode: engine.InvalidationSync})
	assert.True(t, errors.Is(err, sentinel.ErrReplicationModeNotSupported))

	err = m.DefineConfiguration("orders", engine.Configuration{Eviction: engine.EvictionLRU, MaxEntries: 10, Mode: engine.DistSync})
	assert.Nil(t, err)

	cfg, ok := m.Definition("orders")
	assert.True(t, ok)
	assert.Equal(t, engine.DistSync, cfg.Mode)

	region, err := m.Region("orders")
	assert.Nil(t, err)
	assert.Equal(t, engine.DistSync, region.Configuration().Mode)

	err = m.DefineConfiguration("orders", engine.DefaultConfiguration())
	assert.True(t, errors.Is(err, sentinel.ErrRegionRunning))

	assert.Nil(t, m.Stop(t.Context()))

	_, _, err = region.Get(t.Context(), "k")
	assert.True(t, errors.Is(err, sentinel.ErrClosed))

	_, err = m.Region("orders")
	assert.True(t, errors.Is(err, sentinel.ErrClosed))
}
