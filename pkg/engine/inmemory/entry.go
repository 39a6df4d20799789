package inmemory

import (
	"sync/atomic"
	"time"

	"github.com/hyp3rd/cacheservice/pkg/engine"
)

// entry is a stored value with its expiration bookkeeping. Durations follow the engine
// convention: negative is eternal, zero expires immediately.
type entry struct {
	value      any
	created    int64 // unix nanoseconds
	lastAccess atomic.Int64
	lifespan   time.Duration
	maxIdle    time.Duration
}

func newEntry(value any, now time.Time, lifespan, maxIdle time.Duration) *entry {
	e := &entry{
		value:    value,
		created:  now.UnixNano(),
		lifespan: lifespan,
		maxIdle:  maxIdle,
	}
	e.lastAccess.Store(e.created)

	return e
}

// expired reports whether the entry outlived its lifespan or sat idle for too long at now.
func (e *entry) expired(now time.Time) bool {
	nanos := now.UnixNano()

	if !engine.IsEternal(e.lifespan) && time.Duration(nanos-e.created) >= e.lifespan {
		return true
	}

	return !engine.IsEternal(e.maxIdle) && time.Duration(nanos-e.lastAccess.Load()) >= e.maxIdle
}

// touch resets the idle timer.
func (e *entry) touch(now time.Time) {
	e.lastAccess.Store(now.UnixNano())
}
