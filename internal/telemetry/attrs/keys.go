// Package attrs holds the telemetry attribute names shared by the service middlewares.
package attrs

const (
	// AttrCacheName is the name of the cache region an operation ran against.
	AttrCacheName = "cache.name"
	// AttrOperation is the service operation, e.g. "store" or "read".
	AttrOperation = "cache.operation"
	// AttrHit reports whether a read or remove found an entry.
	AttrHit = "cache.hit"
	// AttrKeyType is the Go type of the caller key.
	AttrKeyType = "cache.key.type"
	// AttrExpirationMS is the lifespan of a stored entry in milliseconds, 0 for eternal.
	AttrExpirationMS = "expiration.ms"
	// AttrIdleMS is the idle time of a stored entry in milliseconds, 0 for eternal.
	AttrIdleMS = "idle.ms"
	// AttrOutcome is "ok" or "error".
	AttrOutcome = "outcome"
)
