// Package constants defines default configuration values, configuration leaf keys and engine
// driver names for the cacheservice system.
package constants

import "time"

const (
	// DefaultPrefix is the configuration root used when a module is not rebound.
	DefaultPrefix = "cache."
	// InMemoryPrefix is the conventional configuration root for caches served by the in-memory engine.
	InMemoryPrefix = "inmemory."
	// RedisPrefix is the conventional configuration root for caches served by the redis engine.
	RedisPrefix = "redis."

	// ConfigSuffix is the leaf key of the engine bootstrap handle.
	ConfigSuffix = "config"
	// NameSuffix is the leaf key of the logical cache name.
	NameSuffix = "name"
	// CacheModeSuffix is the leaf key of the eviction strategy.
	CacheModeSuffix = "cacheMode"
	// ReplicationModeSuffix is the leaf key of the engine replication mode.
	ReplicationModeSuffix = "replicationMode"
	// MaxEntriesSuffix is the leaf key of the entry count bound.
	MaxEntriesSuffix = "maxEntries"

	// DefaultBindingToken addresses the unnamed binding wherever a token must be spelled out.
	DefaultBindingToken = "_default"

	// DefaultReapInterval is how often the in-memory engine sweeps expired entries.
	DefaultReapInterval = time.Minute
	// DefaultBootstrapFetchTimeout bounds the retrieval of a remote bootstrap document.
	DefaultBootstrapFetchTimeout = 10 * time.Second

	// InMemoryEngine is the driver name of the in-memory engine.
	InMemoryEngine = "in-memory"
	// RedisEngine is the driver name of the redis engine.
	RedisEngine = "redis"
)
