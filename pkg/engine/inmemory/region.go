package inmemory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/evictor"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
)

// Region is a started in-memory cache region. It implements engine.Cache.
type Region struct {
	name   string
	cfg    engine.Configuration
	items  *shardedMap
	order  evictor.IAlgorithm // nil when the region is unbounded
	mu     sync.Mutex         // keeps items and order consistent on bounded regions
	now    func() time.Time
	logger zerolog.Logger

	stopped  atomic.Bool
	stopCh   chan struct{}
	reaperWG sync.WaitGroup
}

func newRegion(name string, cfg engine.Configuration, m *Manager) (*Region, error) {
	region := &Region{
		name:   name,
		cfg:    cfg,
		items:  newShardedMap(),
		now:    m.now,
		logger: m.logger.With().Str("region", name).Logger(),
		stopCh: make(chan struct{}),
	}

	if cfg.Bounded() {
		order, err := m.algorithms.NewAlgorithm(cfg.Eviction.String(), cfg.MaxEntries)
		if err != nil {
			return nil, err
		}

		region.order = order
	}

	if m.reapInterval > 0 {
		region.startReaper(m.reapInterval)
	}

	return region, nil
}

// Name returns the region name.
func (r *Region) Name() string { return r.name }

// Configuration returns the configuration the region was started with.
func (r *Region) Configuration() engine.Configuration { return r.cfg }

// Len returns the number of stored entries, expired ones not yet reaped included.
func (r *Region) Len() int { return r.items.Count() }

// Put stores value under key without expiration.
func (r *Region) Put(ctx context.Context, key string, value any) error {
	return r.PutWithExpiration(ctx, key, value, engine.Eternal, engine.Eternal)
}

// PutWithExpiration stores value under key with the given lifespan and max idle time.
func (r *Region) PutWithExpiration(_ context.Context, key string, value any, lifespan, maxIdle time.Duration) error {
	if r.stopped.Load() {
		return sentinel.ErrClosed
	}

	e := newEntry(value, r.now(), lifespan, maxIdle)

	if r.order == nil {
		r.items.Set(key, e)

		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items.Set(key, e)

	if victim, ok := r.order.Set(key); ok {
		r.items.Remove(victim)
		r.logger.Debug().Str("key", victim).Str("policy", r.cfg.Eviction.String()).Msg("evicted entry")
	}

	return nil
}

// Get returns the live value stored under key. Expired entries are removed on access.
func (r *Region) Get(_ context.Context, key string) (any, bool, error) {
	if r.stopped.Load() {
		return nil, false, sentinel.ErrClosed
	}

	e, ok := r.items.Get(key)
	if !ok {
		return nil, false, nil
	}

	now := r.now()
	if e.expired(now) {
		r.expire(key, e)

		return nil, false, nil
	}

	e.touch(now)

	if r.order != nil {
		r.order.Get(key)
	}

	return e.value, true, nil
}

// Remove deletes key and returns the live value it held.
func (r *Region) Remove(_ context.Context, key string) (any, bool, error) {
	if r.stopped.Load() {
		return nil, false, sentinel.ErrClosed
	}

	var (
		e  *entry
		ok bool
	)

	if r.order == nil {
		e, ok = r.items.Pop(key)
	} else {
		r.mu.Lock()
		e, ok = r.items.Pop(key)
		r.order.Delete(key)
		r.mu.Unlock()
	}

	if !ok || e.expired(r.now()) {
		return nil, false, nil
	}

	return e.value, true, nil
}

// Clear removes every entry.
func (r *Region) Clear(_ context.Context) error {
	if r.stopped.Load() {
		return sentinel.ErrClosed
	}

	r.clear()

	return nil
}

// Reap removes every expired entry and returns how many were removed.
func (r *Region) Reap() int {
	now := r.now()
	removed := 0

	for key, e := range r.items.Snapshot() {
		if e.expired(now) && r.expire(key, e) {
			removed++
		}
	}

	if removed > 0 {
		r.logger.Debug().Int("count", removed).Msg("reaped expired entries")
	}

	return removed
}

// Stop stops the reaper and drops all entries. It is idempotent.
func (r *Region) Stop(_ context.Context) error {
	if !r.stopped.CompareAndSwap(false, true) {
		return nil
	}

	close(r.stopCh)
	r.reaperWG.Wait()
	r.clear()

	r.logger.Debug().Msg("region stopped")

	return nil
}

// expire removes key when it still holds e.
func (r *Region) expire(key string, e *entry) bool {
	if r.order == nil {
		return r.items.RemoveIf(key, e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.items.RemoveIf(key, e) {
		return false
	}

	r.order.Delete(key)

	return true
}

func (r *Region) clear() {
	if r.order == nil {
		r.items.Clear()

		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items.Clear()

	for {
		if _, ok := r.order.Evict(); !ok {
			break
		}
	}
}

// startReaper runs the expiration loop until the region is stopped.
func (r *Region) startReaper(interval time.Duration) {
	r.reaperWG.Add(1)

	go func() {
		defer r.reaperWG.Done()

		tick := time.NewTicker(interval)
		defer tick.Stop()

		for {
			select {
			case <-tick.C:
				r.Reap()
			case <-r.stopCh:
				return
			}
		}
	}()
}
