package constants

import "time"

const (
	// RedisKeyPrefix is the default namespace of every key the redis engine writes.
	RedisKeyPrefix = "cacheservice"
	// RedisDialTimeout is the timeout for the Redis dialer.
	RedisDialTimeout = 10 * time.Second
	// RedisClientMaxRetries is the maximum number of retries for the Redis client.
	RedisClientMaxRetries = 10
	// RedisClientReadTimeout is the read timeout for the Redis client.
	RedisClientReadTimeout = 30 * time.Second
	// RedisClientWriteTimeout is the write timeout for the Redis client.
	RedisClientWriteTimeout = 30 * time.Second
	// RedisClientPoolSize is the pool size for the Redis client.
	RedisClientPoolSize = 20
	// RedisClientMinIdleConns is the minimum number of idle connections for the Redis client.
	RedisClientMinIdleConns = 10
	// RedisWaitTimeout bounds the replica acknowledgement of synchronous replication modes.
	RedisWaitTimeout = time.Second
	// RedisNearCacheTTL is the default lifetime of an entry in the redis near cache.
	RedisNearCacheTTL = 5 * time.Second
	// RedisScanCount is the COUNT hint used when scanning a region's keys.
	RedisScanCount = 512
)
