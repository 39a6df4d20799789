package cacheservice

import (
	"errors"
	"testing"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
	"github.com/hyp3rd/cacheservice/pkg/eviction"
)

func TestToEngineStrategy(t *testing.T) {
	expected := map[eviction.Strategy]engine.EvictionPolicy{
		eviction.LRU:       engine.EvictionLRU,
		eviction.FIFO:      engine.EvictionFIFO,
		eviction.Unlimited: engine.EvictionNone,
	}

	// every member of the closed set has a translation
	for _, strategy := range eviction.Strategies() {
		policy, err := ToEngineStrategy(strategy)
		assert.Nil(t, err)
		assert.Equal(t, expected[strategy], policy)
	}

	_, err := ToEngineStrategy(eviction.Strategy(99))
	assert.True(t, errors.Is(err, sentinel.ErrUnsupportedOperation))
}

func TestToEngineReplicationMode(t *testing.T) {
	mode, err := ToEngineReplicationMode("dist_sync")
	assert.Nil(t, err)
	assert.Equal(t, engine.DistSync, mode)

	_, err = ToEngineReplicationMode("SCATTERED")
	assert.True(t, errors.Is(err, sentinel.ErrUnknownReplicationMode))
}
