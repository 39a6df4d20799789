package bootstrap

import (
	"context"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/rs/zerolog"

	"github.com/hyp3rd/cacheservice/internal/libs/serializer"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
	"github.com/hyp3rd/cacheservice/pkg/engine/inmemory"
	"github.com/hyp3rd/cacheservice/pkg/engine/redis"
)

func openInMemory(_ context.Context, doc Document, logger zerolog.Logger) (engine.Manager, error) {
	opts := []inmemory.Option{inmemory.WithLogger(logger)}

	if doc.InMemory.ReapInterval != nil {
		opts = append(opts, inmemory.WithReapInterval(time.Duration(*doc.InMemory.ReapInterval)))
	}

	return inmemory.NewManager(opts...), nil
}

func openRedis(ctx context.Context, doc Document, logger zerolog.Logger) (engine.Manager, error) {
	cfg := doc.Redis

	ser, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, ewrap.Wrapf(sentinel.ErrBootstrapInvalid, "redis serializer: %v", err)
	}

	client, err := redis.NewClient(
		redis.WithAddrs(cfg.Addrs...),
		redis.WithMasterName(cfg.MasterName),
		redis.WithUsername(cfg.Username),
		redis.WithPassword(cfg.Password),
		redis.WithDB(cfg.DB),
	)
	if err != nil {
		return nil, ewrap.Wrapf(sentinel.ErrBootstrapInvalid, "redis client: %v", err)
	}

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, ewrap.Wrapf(sentinel.ErrBootstrapUnreadable, "redis %v: %v", cfg.Addrs, err)
	}

	opts := []redis.Option{
		redis.WithKeyPrefix(cfg.KeyPrefix),
		redis.WithSerializer(ser),
		redis.WithNearCache(cfg.NearCache.MaxEntries, time.Duration(cfg.NearCache.TTL)),
		redis.WithClientOwnership(),
		redis.WithLogger(logger),
	}

	if cfg.WaitReplicas != nil {
		opts = append(opts, redis.WithWait(*cfg.WaitReplicas, time.Duration(cfg.WaitTimeout)))
	}

	manager, err := redis.NewManager(client, opts...)
	if err != nil {
		_ = client.Close()

		return nil, err
	}

	return manager, nil
}
