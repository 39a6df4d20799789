// Package middleware provides service middlewares for the cache service.
// Each middleware decorates a cacheservice.Service and forwards every call to the service it wraps.
package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/cacheservice"
)

// Logger describes a logging interface allowing to plug different loggers.
// A *zerolog.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// LoggingMiddleware logs the time each operation takes.
type LoggingMiddleware struct {
	next   cacheservice.Service
	logger Logger
}

// NewLoggingMiddleware returns a new LoggingMiddleware.
func NewLoggingMiddleware(next cacheservice.Service, logger Logger) cacheservice.Service {
	return &LoggingMiddleware{next: next, logger: logger}
}

// Logging adapts NewLoggingMiddleware to cacheservice.Middleware.
func Logging(logger Logger) cacheservice.Middleware {
	return func(next cacheservice.Service) cacheservice.Service {
		return NewLoggingMiddleware(next, logger)
	}
}

// Store logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware) Store(ctx context.Context, key, value any) error {
	defer mw.took("Store", time.Now())

	mw.logger.Printf("Store method called on %s with key: %v", mw.next.Name(), key)

	return mw.next.Store(ctx, key, value)
}

// StoreWithExpiration logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware) StoreWithExpiration(ctx context.Context, key, value any, exp cacheservice.Expiration) error {
	defer mw.took("StoreWithExpiration", time.Now())

	mw.logger.Printf("StoreWithExpiration method called on %s with key: %v, expiration: %s", mw.next.Name(), key, exp)

	return mw.next.StoreWithExpiration(ctx, key, value, exp)
}

// Read logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware) Read(ctx context.Context, key any) (any, bool, error) {
	defer mw.took("Read", time.Now())

	mw.logger.Printf("Read method called on %s with key: %v", mw.next.Name(), key)

	return mw.next.Read(ctx, key)
}

// Remove logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware) Remove(ctx context.Context, key any) (any, bool, error) {
	defer mw.took("Remove", time.Now())

	mw.logger.Printf("Remove method called on %s with key: %v", mw.next.Name(), key)

	return mw.next.Remove(ctx, key)
}

// Clear logs the time it takes to execute the next middleware.
func (mw *LoggingMiddleware) Clear(ctx context.Context) error {
	defer mw.took("Clear", time.Now())

	mw.logger.Printf("Clear method called on %s", mw.next.Name())

	return mw.next.Clear(ctx)
}

// MaxAge returns the default lifespan.
func (mw *LoggingMiddleware) MaxAge() time.Duration { return mw.next.MaxAge() }

// MaxAgeIn returns the default lifespan in unit.
func (mw *LoggingMiddleware) MaxAgeIn(unit time.Duration) int64 { return mw.next.MaxAgeIn(unit) }

// SetMaxAge logs the new default lifespan.
func (mw *LoggingMiddleware) SetMaxAge(maxAge time.Duration) error {
	mw.logger.Printf("SetMaxAge method called on %s with max age: %s", mw.next.Name(), maxAge)

	return mw.next.SetMaxAge(maxAge)
}

// DefaultExpiration returns the default policy.
func (mw *LoggingMiddleware) DefaultExpiration() cacheservice.Expiration {
	return mw.next.DefaultExpiration()
}

// SetDefaultExpiration logs the new default policy.
func (mw *LoggingMiddleware) SetDefaultExpiration(exp cacheservice.Expiration) error {
	mw.logger.Printf("SetDefaultExpiration method called on %s with expiration: %s", mw.next.Name(), exp)

	return mw.next.SetDefaultExpiration(exp)
}

// Name returns the cache name.
func (mw *LoggingMiddleware) Name() string { return mw.next.Name() }

// State returns the lifecycle state.
func (mw *LoggingMiddleware) State() cacheservice.State { return mw.next.State() }

// Close logs the time it takes to close the next middleware.
func (mw *LoggingMiddleware) Close(ctx context.Context) error {
	defer mw.took("Close", time.Now())

	mw.logger.Printf("Close method called on %s", mw.next.Name())

	return mw.next.Close(ctx)
}

// Unwrap returns the decorated service.
func (mw *LoggingMiddleware) Unwrap() cacheservice.Service { return mw.next } //nolint:ireturn

func (mw *LoggingMiddleware) took(method string, begin time.Time) {
	mw.logger.Printf("method %s took: %s", method, time.Since(begin))
}
