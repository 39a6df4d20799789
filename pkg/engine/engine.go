// Package engine defines the contract the cache service consumes from a cache engine.
//
// An engine owns the actual storage, eviction data structures and replication behavior. The
// cache service only configures a named region through a Manager and then calls the region's
// Cache handle. Engines in this module follow one expiration convention: a negative duration
// means the entry never expires (see Eternal), a zero lifespan expires the entry on write.
package engine

import (
	"context"
	"time"
)

// Eternal is the engine marker for "never expires", applicable to both lifespan and max idle.
const Eternal time.Duration = -1

// IsEternal reports whether d is the engine "never expires" marker.
func IsEternal(d time.Duration) bool {
	return d < 0
}

// Cache is an engine-native handle to one started cache region.
// Implementations must be safe for concurrent use; each operation is atomic per key.
type Cache interface {
	// Name returns the region name the handle was started for.
	Name() string
	// Put stores value under key using the region defaults (eternal).
	Put(ctx context.Context, key string, value any) error
	// PutWithExpiration stores value under key with an explicit lifespan and max idle time.
	// Negative durations mean eternal; a zero lifespan expires the entry immediately.
	PutWithExpiration(ctx context.Context, key string, value any, lifespan, maxIdle time.Duration) error
	// Get returns the value stored under key, reporting whether it was present and not expired.
	Get(ctx context.Context, key string) (any, bool, error)
	// Remove deletes key and returns the value it held, if any.
	Remove(ctx context.Context, key string) (any, bool, error)
	// Clear removes every entry of the region.
	Clear(ctx context.Context) error
	// Stop releases the region; subsequent operations fail.
	Stop(ctx context.Context) error
}

// Manager is the administrative surface of an engine: it defines, starts and stops named regions.
type Manager interface {
	// DefineConfiguration registers or replaces the configuration of the named region.
	// Redefining a running region fails.
	DefineConfiguration(name string, cfg Configuration) error
	// Definition returns the configuration defined for the named region, if any.
	Definition(name string) (Configuration, bool)
	// Cache returns the started region with the given name, starting it on first use from its
	// defined configuration, or the engine defaults when none was defined.
	Cache(ctx context.Context, name string) (Cache, error)
	// Stop stops every region and releases engine resources.
	Stop(ctx context.Context) error
}
