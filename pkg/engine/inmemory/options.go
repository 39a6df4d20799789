package inmemory

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/evictor"
)

// Option is a function type that can be used to configure the `Manager`.
type Option func(*Manager)

// ApplyOptions applies the given options to the given manager.
func ApplyOptions(m *Manager, options ...Option) {
	for _, option := range options {
		option(m)
	}
}

// WithClock sets the time source used for expiration decisions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithReapInterval sets how often every region sweeps expired entries. Zero disables the sweep;
// expired entries are then only dropped when accessed or by an explicit Reap.
func WithReapInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval < 0 {
			interval = 0
		}

		m.reapInterval = interval
	}
}

// WithLogger sets the logger used for region lifecycle and eviction events.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithAlgorithms replaces the registry the ordering algorithms are created from.
func WithAlgorithms(registry *evictor.AlgorithmRegistry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.algorithms = registry
		}
	}
}
