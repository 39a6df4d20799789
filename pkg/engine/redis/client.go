package redis

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/redis/go-redis/v9"

	"github.com/hyp3rd/cacheservice/internal/constants"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

// ClientOption configures the redis.UniversalOptions a client is built from.
type ClientOption func(*redis.UniversalOptions)

// ApplyClientOptions applies the given options to opt.
func ApplyClientOptions(opt *redis.UniversalOptions, options ...ClientOption) {
	for _, option := range options {
		option(opt)
	}
}

// WithAddrs sets the seed addresses. One address yields a standalone client, more yield a
// cluster client, unless a master name is set.
func WithAddrs(addrs ...string) ClientOption {
	return func(opt *redis.UniversalOptions) {
		opt.Addrs = append(opt.Addrs[:0], addrs...)
	}
}

// WithMasterName selects a sentinel-managed failover client for the named master.
func WithMasterName(name string) ClientOption {
	return func(opt *redis.UniversalOptions) {
		opt.MasterName = name
	}
}

// WithUsername sets the ACL username.
func WithUsername(username string) ClientOption {
	return func(opt *redis.UniversalOptions) {
		opt.Username = username
	}
}

// WithPassword sets the password.
func WithPassword(password string) ClientOption {
	return func(opt *redis.UniversalOptions) {
		opt.Password = password
	}
}

// WithDB selects the database. Ignored by cluster clients.
func WithDB(db int) ClientOption {
	return func(opt *redis.UniversalOptions) {
		opt.DB = db
	}
}

// WithTLSConfig enables TLS.
func WithTLSConfig(cfg *tls.Config) ClientOption {
	return func(opt *redis.UniversalOptions) {
		opt.TLSConfig = cfg
	}
}

// WithMaxRetries sets the maximum number of command retries.
func WithMaxRetries(maxRetries int) ClientOption {
	return func(opt *redis.UniversalOptions) {
		opt.MaxRetries = maxRetries
	}
}

// WithDialTimeout sets the dial timeout.
func WithDialTimeout(timeout time.Duration) ClientOption {
	return func(opt *redis.UniversalOptions) {
		opt.DialTimeout = timeout
	}
}

// WithPoolSize sets the connection pool size.
func WithPoolSize(size int) ClientOption {
	return func(opt *redis.UniversalOptions) {
		opt.PoolSize = size
	}
}

// NewClient creates a standalone, failover or cluster client depending on the options.
func NewClient(opts ...ClientOption) (redis.UniversalClient, error) {
	opt := &redis.UniversalOptions{
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{
				Timeout: constants.RedisDialTimeout,
			}

			return dialer.DialContext(ctx, network, addr)
		},
		MaxRetries:   constants.RedisClientMaxRetries,
		DialTimeout:  constants.RedisDialTimeout,
		ReadTimeout:  constants.RedisClientReadTimeout,
		WriteTimeout: constants.RedisClientWriteTimeout,
		PoolSize:     constants.RedisClientPoolSize,
		MinIdleConns: constants.RedisClientMinIdleConns,
	}

	ApplyClientOptions(opt, opts...)

	if len(opt.Addrs) == 0 {
		return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "redis addresses")
	}

	for _, addr := range opt.Addrs {
		if addr == "" {
			return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "redis address")
		}
	}

	return redis.NewUniversalClient(opt), nil
}
