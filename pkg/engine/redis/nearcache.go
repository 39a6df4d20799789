package redis

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

type nearEntry struct {
	typ  string
	data []byte
}

// nearCache keeps encoded values of one region in process memory. A nil *nearCache is disabled.
type nearCache struct {
	rc  *ristretto.Cache[string, nearEntry]
	ttl time.Duration
}

func newNearCache(maxEntries int64, ttl time.Duration) (*nearCache, error) {
	if maxEntries <= 0 || ttl <= 0 {
		return nil, nil //nolint:nilnil
	}

	rc, err := ristretto.NewCache(&ristretto.Config[string, nearEntry]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &nearCache{rc: rc, ttl: ttl}, nil
}

func (n *nearCache) get(key string) (nearEntry, bool) {
	if n == nil {
		return nearEntry{}, false
	}

	return n.rc.Get(key)
}

// set keeps entry for the near TTL, or less when the entry's remaining life is shorter.
func (n *nearCache) set(key string, entry nearEntry, remaining time.Duration) {
	if n == nil {
		return
	}

	ttl := n.ttl
	if remaining > 0 && remaining < ttl {
		ttl = remaining
	}

	n.rc.SetWithTTL(key, entry, 1, ttl)
	n.rc.Wait()
}

func (n *nearCache) del(key string) {
	if n == nil {
		return
	}

	n.rc.Del(key)
}

func (n *nearCache) clear() {
	if n == nil {
		return
	}

	n.rc.Clear()
}

func (n *nearCache) close() {
	if n == nil {
		return
	}

	n.rc.Close()
}
