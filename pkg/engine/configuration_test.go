package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

func TestParseReplicationMode(t *testing.T) {
	tests := []struct {
		token    string
		expected ReplicationMode
	}{
		{token: "LOCAL", expected: Local},
		{token: "repl_sync", expected: ReplSync},
		{token: "repl-async", expected: ReplAsync},
		{token: "INVALIDATION_SYNC", expected: InvalidationSync},
		{token: "invalidation_async", expected: InvalidationAsync},
		{token: " DIST_SYNC ", expected: DistSync},
		{token: "dist_async", expected: DistAsync},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			mode, err := ParseReplicationMode(tt.token)
			assert.Nil(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}

	_, err := ParseReplicationMode("GOSSIP")
	assert.True(t, errors.Is(err, sentinel.ErrUnsupportedOperation))
}

func TestReplicationMode_Synchronous(t *testing.T) {
	assert.True(t, ReplSync.Synchronous())
	assert.True(t, DistSync.Synchronous())
	assert.False(t, Local.Synchronous())
	assert.False(t, ReplAsync.Synchronous())
}

func TestParseEvictionPolicy(t *testing.T) {
	policy, err := ParseEvictionPolicy("none")
	assert.Nil(t, err)
	assert.Equal(t, EvictionNone, policy)

	policy, err = ParseEvictionPolicy("Lru")
	assert.Nil(t, err)
	assert.Equal(t, EvictionLRU, policy)

	_, err = ParseEvictionPolicy("UNLIMITED")
	assert.True(t, errors.Is(err, sentinel.ErrUnsupportedOperation))
}

func TestConfiguration_Validate(t *testing.T) {
	assert.Nil(t, DefaultConfiguration().Validate())

	cfg := Configuration{Eviction: EvictionLRU, MaxEntries: -1}
	assert.True(t, errors.Is(cfg.Validate(), sentinel.ErrInvalidArgument))

	cfg = Configuration{Eviction: EvictionPolicy(9)}
	assert.True(t, errors.Is(cfg.Validate(), sentinel.ErrUnsupportedOperation))

	cfg = Configuration{Mode: ReplicationMode(42)}
	assert.True(t, errors.Is(cfg.Validate(), sentinel.ErrUnsupportedOperation))
}

func TestConfiguration_Bounded(t *testing.T) {
	assert.False(t, Configuration{Eviction: EvictionNone, MaxEntries: 10}.Bounded())
	assert.False(t, Configuration{Eviction: EvictionLRU}.Bounded())
	assert.True(t, Configuration{Eviction: EvictionFIFO, MaxEntries: 1}.Bounded())
}

func TestIsEternal(t *testing.T) {
	assert.True(t, IsEternal(Eternal))
	assert.False(t, IsEternal(0))
	assert.False(t, IsEternal(time.Second))
}

func TestConfiguration_TextForm(t *testing.T) {
	text, err := EvictionFIFO.MarshalText()
	assert.Nil(t, err)
	assert.Equal(t, "FIFO", string(text))

	text, err = DistAsync.MarshalText()
	assert.Nil(t, err)
	assert.Equal(t, "DIST_ASYNC", string(text))

	var mode ReplicationMode

	assert.Nil(t, mode.UnmarshalText(text))
	assert.Equal(t, DistAsync, mode)

	_, err = EvictionPolicy(9).MarshalText()
	assert.True(t, errors.Is(err, sentinel.ErrUnsupportedOperation))
}
