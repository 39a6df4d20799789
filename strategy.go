package cacheservice

import (
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
	"github.com/hyp3rd/cacheservice/pkg/eviction"
)

// ToEngineStrategy translates an engine-neutral eviction strategy into the engine policy.
// A strategy added to the eviction package must be added here; until then it fails with
// sentinel.ErrUnsupportedOperation.
func ToEngineStrategy(strategy eviction.Strategy) (engine.EvictionPolicy, error) {
	switch strategy {
	case eviction.LRU:
		return engine.EvictionLRU, nil
	case eviction.FIFO:
		return engine.EvictionFIFO, nil
	case eviction.Unlimited:
		return engine.EvictionNone, nil
	default:
		return engine.EvictionNone, ewrap.Wrap(sentinel.ErrUnknownStrategy, strategy.String())
	}
}

// ToEngineReplicationMode translates a replication mode token into the engine mode.
// Tokens outside the engine's closed set fail with sentinel.ErrUnsupportedOperation.
func ToEngineReplicationMode(token string) (engine.ReplicationMode, error) {
	return engine.ParseReplicationMode(token)
}
