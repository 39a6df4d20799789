package redis

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/libs/serializer"
)

// Option is a function type that can be used to configure the `Manager`.
type Option func(*Manager)

// ApplyOptions applies the given options to the given manager.
func ApplyOptions(m *Manager, options ...Option) {
	for _, option := range options {
		option(m)
	}
}

// WithKeyPrefix sets the namespace every key of the manager is written under.
func WithKeyPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.keyPrefix = prefix
		}
	}
}

// WithSerializer sets the value serializer. Values written by one serializer cannot be read by another.
func WithSerializer(s serializer.ISerializer) Option {
	return func(m *Manager) {
		if s != nil {
			m.serializer = s
		}
	}
}

// WithValueTypes replaces the process-wide type registry with types.
func WithValueTypes(types *serializer.TypeRegistry) Option {
	return func(m *Manager) {
		if types != nil {
			m.types = types
		}
	}
}

// WithNearCache keeps up to maxEntries encoded values per region in process memory for at most ttl
// (constants.RedisNearCacheTTL when ttl is not positive).
// Only entries without an idle time in non-LRU regions are kept near: for those, a read changes
// nothing on the server. Writes from other processes are seen once the near copy expires.
func WithNearCache(maxEntries int64, ttl time.Duration) Option {
	return func(m *Manager) {
		m.nearMaxEntries = maxEntries

		if ttl > 0 {
			m.nearTTL = ttl
		}
	}
}

// WithWait sets how many replicas must acknowledge a write in synchronous replication modes,
// and for how long to wait for them.
func WithWait(replicas int, timeout time.Duration) Option {
	return func(m *Manager) {
		if replicas >= 0 {
			m.waitReplicas = replicas
		}

		if timeout > 0 {
			m.waitTimeout = timeout
		}
	}
}

// WithClientOwnership makes Stop close the client.
func WithClientOwnership() Option {
	return func(m *Manager) {
		m.ownsClient = true
	}
}

// WithClock sets the time source used for deadlines and ordering scores.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger used for region lifecycle and eviction events.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}
