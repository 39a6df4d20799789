package redis

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/constants"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
)

const (
	fieldData     = "data"
	fieldDeadline = "deadline"
	fieldIdle     = "idle"
	fieldType     = "type"
)

// Region is a started Redis-backed region. It implements engine.Cache.
type Region struct {
	name        string
	cfg         engine.Configuration
	m           *Manager
	entryPrefix string
	indexKey    string
	near        *nearCache
	logger      zerolog.Logger

	stopped atomic.Bool
}

func newRegion(name string, cfg engine.Configuration, m *Manager) (*Region, error) {
	var (
		near *nearCache
		err  error
	)

	// near copies would skip the server-side idle refresh and LRU rescoring
	if cfg.Eviction != engine.EvictionLRU {
		near, err = newNearCache(m.nearMaxEntries, m.nearTTL)
		if err != nil {
			return nil, ewrap.Wrap(err, "creating near cache")
		}
	}

	return &Region{
		name:        name,
		cfg:         cfg,
		m:           m,
		entryPrefix: m.entryPrefix(name),
		indexKey:    m.indexKey(name),
		near:        near,
		logger:      m.logger.With().Str("region", name).Logger(),
	}, nil
}

// Name returns the region name.
func (r *Region) Name() string { return r.name }

// Configuration returns the configuration the region was started with.
func (r *Region) Configuration() engine.Configuration { return r.cfg }

// Len returns the size of the region index. Entries the server already expired are counted
// until a read or Reap drops them.
func (r *Region) Len(ctx context.Context) (int64, error) {
	n, err := r.m.client.ZCard(ctx, r.indexKey).Result()
	if err != nil {
		return 0, ewrap.Wrap(err, "counting region entries")
	}

	return n, nil
}

// Put stores value under key without expiration.
func (r *Region) Put(ctx context.Context, key string, value any) error {
	return r.PutWithExpiration(ctx, key, value, engine.Eternal, engine.Eternal)
}

// PutWithExpiration stores value under key with the given lifespan and max idle time.
func (r *Region) PutWithExpiration(ctx context.Context, key string, value any, lifespan, maxIdle time.Duration) error {
	if r.stopped.Load() {
		return sentinel.ErrClosed
	}

	now := r.m.now()

	exp, live := newExpiry(now, lifespan, maxIdle)
	if !live {
		_, _, err := r.remove(ctx, key)

		return err
	}

	data, err := r.m.serializer.Marshal(value)
	if err != nil {
		return err
	}

	indexMode := "touch"
	if r.cfg.Eviction == engine.EvictionFIFO {
		indexMode = "insert"
	}

	maxEntries := 0
	if r.cfg.Bounded() {
		maxEntries = r.cfg.MaxEntries
	}

	ekey := r.entryPrefix + key
	r.near.del(ekey)

	cmds, err := r.exec(ctx, func(pipe redis.Pipeliner) {
		putScript.Eval(ctx, pipe, []string{ekey, r.indexKey},
			data,
			exp.deadline,
			exp.idle,
			exp.ttl(now).Milliseconds(),
			score(now),
			indexMode,
			key,
			maxEntries,
			r.entryPrefix,
			r.m.types.Name(value),
		)
	})
	if err != nil {
		return err
	}

	if evicted, _ := cmds[0].(*redis.Cmd).Int64(); evicted > 0 {
		r.logger.Debug().Int64("count", evicted).Str("policy", r.cfg.Eviction.String()).Msg("evicted entries")
	}

	return nil
}

// Get returns the live value stored under key. Reads refresh the idle window and, in LRU regions,
// the access order.
func (r *Region) Get(ctx context.Context, key string) (any, bool, error) {
	if r.stopped.Load() {
		return nil, false, sentinel.ErrClosed
	}

	ekey := r.entryPrefix + key

	if entry, ok := r.near.get(ekey); ok {
		value, err := r.decode(entry.typ, entry.data)

		return value, err == nil, err
	}

	fields, err := r.m.client.HMGet(ctx, ekey, fieldData, fieldDeadline, fieldIdle, fieldType).Result()
	if err != nil {
		return nil, false, ewrap.Wrap(err, "reading entry")
	}

	raw, ok := fields[0].(string)
	if !ok {
		// the server expired the entry; drop its index member
		r.m.client.ZRem(ctx, r.indexKey, key)

		return nil, false, nil
	}

	now := r.m.now()

	exp := parseExpiry(fields[1], fields[2])
	if exp.expired(now) {
		_, _, err = r.remove(ctx, key)

		return nil, false, err
	}

	err = r.touch(ctx, ekey, key, exp, now)
	if err != nil {
		return nil, false, err
	}

	typ, _ := fields[3].(string)
	data := []byte(raw)

	value, err := r.decode(typ, data)
	if err != nil {
		return nil, false, err
	}

	if exp.idle == 0 {
		r.near.set(ekey, nearEntry{typ: typ, data: data}, exp.ttl(now))
	}

	return value, true, nil
}

// Remove deletes key and returns the live value it held.
func (r *Region) Remove(ctx context.Context, key string) (any, bool, error) {
	if r.stopped.Load() {
		return nil, false, sentinel.ErrClosed
	}

	return r.remove(ctx, key)
}

// Clear removes every indexed entry of the region.
func (r *Region) Clear(ctx context.Context) error {
	if r.stopped.Load() {
		return sentinel.ErrClosed
	}

	members, err := r.m.client.ZRange(ctx, r.indexKey, 0, -1).Result()
	if err != nil {
		return ewrap.Wrap(err, "listing region entries")
	}

	r.near.clear()

	for start := 0; start < len(members); start += constants.RedisScanCount {
		end := min(start+constants.RedisScanCount, len(members))

		keys := make([]string, 0, end-start)
		for _, member := range members[start:end] {
			keys = append(keys, r.entryPrefix+member)
		}

		_, err = r.exec(ctx, func(pipe redis.Pipeliner) {
			pipe.Del(ctx, keys...)
			pipe.ZRem(ctx, r.indexKey, toAny(members[start:end])...)
		})
		if err != nil {
			return err
		}
	}

	r.logger.Debug().Int("count", len(members)).Msg("region cleared")

	return nil
}

// Reap drops index members whose entries the server already expired and returns how many.
func (r *Region) Reap(ctx context.Context) (int, error) {
	members, err := r.m.client.ZRange(ctx, r.indexKey, 0, -1).Result()
	if err != nil {
		return 0, ewrap.Wrap(err, "listing region entries")
	}

	removed := 0

	for start := 0; start < len(members); start += constants.RedisScanCount {
		end := min(start+constants.RedisScanCount, len(members))
		batch := members[start:end]

		cmds, err := r.m.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, member := range batch {
				pipe.Exists(ctx, r.entryPrefix+member)
			}

			return nil
		})
		if err != nil {
			return removed, ewrap.Wrap(err, "checking region entries")
		}

		var gone []any

		for i, cmd := range cmds {
			if n, _ := cmd.(*redis.IntCmd).Result(); n == 0 {
				gone = append(gone, batch[i])
			}
		}

		if len(gone) == 0 {
			continue
		}

		err = r.m.client.ZRem(ctx, r.indexKey, gone...).Err()
		if err != nil {
			return removed, ewrap.Wrap(err, "dropping expired index members")
		}

		removed += len(gone)
	}

	return removed, nil
}

// Stop releases the region handle and its near cache. Stored entries are kept on the server.
func (r *Region) Stop(_ context.Context) error {
	if !r.stopped.CompareAndSwap(false, true) {
		return nil
	}

	r.near.close()
	r.logger.Debug().Msg("region stopped")

	return nil
}

func (r *Region) remove(ctx context.Context, key string) (any, bool, error) {
	ekey := r.entryPrefix + key
	r.near.del(ekey)

	cmds, err := r.exec(ctx, func(pipe redis.Pipeliner) {
		removeScript.Eval(ctx, pipe, []string{ekey, r.indexKey}, key)
	})
	if err != nil {
		return nil, false, err
	}

	fields, err := cmds[0].(*redis.Cmd).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, ewrap.Wrap(err, "removing entry")
	}

	raw, ok := fields[0].(string)
	if !ok || parseExpiry(fields[1], nil).expired(r.m.now()) {
		return nil, false, nil
	}

	var typ string
	if len(fields) > 2 {
		typ, _ = fields[2].(string)
	}

	value, err := r.decode(typ, []byte(raw))
	if err != nil {
		return nil, false, err
	}

	return value, true, nil
}

func (r *Region) touch(ctx context.Context, ekey, member string, exp expiry, now time.Time) error {
	lru := r.cfg.Eviction == engine.EvictionLRU
	if exp.idle == 0 && !lru {
		return nil
	}

	_, err := r.m.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		if exp.idle > 0 {
			pipe.PExpire(ctx, ekey, exp.ttl(now))
		}

		if lru {
			pipe.ZAddXX(ctx, r.indexKey, redis.Z{Score: score(now), Member: member})
		}

		return nil
	})

	return ewrap.Wrap(err, "refreshing entry")
}

// exec runs fn in a pipeline. In synchronous modes the pipeline ends with WAIT on the same
// connection and too few acknowledgements fail with sentinel.ErrReplicationIncomplete.
// WAIT is not part of the Pipeliner interface, so it is sent as a raw command.
func (r *Region) exec(ctx context.Context, fn func(redis.Pipeliner)) ([]redis.Cmder, error) {
	sync := r.cfg.Mode.Synchronous()

	cmds, err := r.m.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(pipe)

		if sync {
			pipe.Do(ctx, "WAIT", r.m.waitReplicas, r.m.waitTimeout.Milliseconds())
		}

		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, ewrap.Wrap(err, "executing redis pipeline")
	}

	if sync {
		acked, err := cmds[len(cmds)-1].(*redis.Cmd).Int64()
		if err != nil {
			return nil, ewrap.Wrap(err, "waiting for replicas")
		}

		if int(acked) < r.m.waitReplicas {
			return nil, ewrap.Wrapf(sentinel.ErrReplicationIncomplete, "%d of %d replicas", acked, r.m.waitReplicas)
		}
	}

	return cmds, nil
}

// decode restores a value with the Go type recorded when it was written.
func (r *Region) decode(typ string, data []byte) (any, error) {
	return r.m.types.Decode(r.m.serializer, typ, data)
}

func toAny(members []string) []any {
	out := make([]any, len(members))
	for i, m := range members {
		out[i] = m
	}

	return out
}

// String implements fmt.Stringer.
func (r *Region) String() string {
	return r.name + " (" + r.cfg.Eviction.String() + ", max " + strconv.Itoa(r.cfg.MaxEntries) + ", " + r.cfg.Mode.String() + ")"
}
