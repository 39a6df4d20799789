package inmemory

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const (
	// shardCount is the number of shards used by the map.
	shardCount = 32
	// shardMask is pre-casted to avoid conversions on the hot path.
	shardMask uint64 = shardCount - 1
)

// shardedMap is a concurrency safe map of string to *entry.
// To avoid lock bottlenecks the map is divided into several (shardCount) shards.
type shardedMap struct {
	shards [shardCount]*mapShard
}

// mapShard is one lock-protected partition of the map.
type mapShard struct {
	sync.RWMutex

	items map[string]*entry
}

func newShardedMap() *shardedMap {
	sm := &shardedMap{}
	for i := range shardCount {
		sm.shards[i] = &mapShard{items: make(map[string]*entry)}
	}

	return sm
}

// shard returns the shard owning key.
func (sm *shardedMap) shard(key string) *mapShard {
	return sm.shards[xxhash.Sum64String(key)&shardMask]
}

// Set stores e under key.
func (sm *shardedMap) Set(key string, e *entry) {
	shard := sm.shard(key)
	shard.Lock()
	shard.items[key] = e
	shard.Unlock()
}

// Get retrieves the entry stored under key.
func (sm *shardedMap) Get(key string) (*entry, bool) {
	shard := sm.shard(key)
	shard.RLock()
	e, ok := shard.items[key]
	shard.RUnlock()

	return e, ok
}

// Pop removes the entry stored under key and returns it.
func (sm *shardedMap) Pop(key string) (*entry, bool) {
	shard := sm.shard(key)
	shard.Lock()
	defer shard.Unlock()

	e, ok := shard.items[key]
	if ok {
		delete(shard.items, key)
	}

	return e, ok
}

// Remove deletes key.
func (sm *shardedMap) Remove(key string) {
	shard := sm.shard(key)
	shard.Lock()
	delete(shard.items, key)
	shard.Unlock()
}

// RemoveIf deletes key only while it still maps to expected.
func (sm *shardedMap) RemoveIf(key string, expected *entry) bool {
	shard := sm.shard(key)
	shard.Lock()
	defer shard.Unlock()

	if current, ok := shard.items[key]; ok && current == expected {
		delete(shard.items, key)

		return true
	}

	return false
}

// Count returns the number of entries across all shards.
func (sm *shardedMap) Count() int {
	count := 0

	for _, shard := range sm.shards {
		shard.RLock()
		count += len(shard.items)
		shard.RUnlock()
	}

	return count
}

// Snapshot copies the current key/entry pairs so callers can iterate without holding locks.
func (sm *shardedMap) Snapshot() map[string]*entry {
	out := make(map[string]*entry, sm.Count())

	for _, shard := range sm.shards {
		shard.RLock()

		for key, e := range shard.items {
			out[key] = e
		}

		shard.RUnlock()
	}

	return out
}

// Clear removes all entries.
func (sm *shardedMap) Clear() {
	for _, shard := range sm.shards {
		shard.Lock()
		shard.items = make(map[string]*entry)
		shard.Unlock()
	}
}
