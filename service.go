package cacheservice

import (
	"context"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

// Service is the operational contract application code calls.
// It enables middleware to be added to the service.
type Service interface {
	crud
	// MaxAge returns the lifespan component of the default expiration.
	MaxAge() time.Duration
	// MaxAgeIn returns MaxAge as a whole number of unit.
	MaxAgeIn(unit time.Duration) int64
	// SetMaxAge replaces the lifespan component of the default expiration. Stored entries keep theirs.
	SetMaxAge(maxAge time.Duration) error
	// DefaultExpiration returns the policy applied by Store.
	DefaultExpiration() Expiration
	// SetDefaultExpiration replaces the policy applied by Store.
	SetDefaultExpiration(exp Expiration) error
	// Name returns the cache name.
	Name() string
	// State returns the lifecycle state.
	State() State
	// Close shuts the service down and releases the engine handle.
	Close(ctx context.Context) error
}

type crud interface {
	// Store writes value under key using the default expiration.
	Store(ctx context.Context, key, value any) error
	// StoreWithExpiration writes value under key using exp for this entry only.
	StoreWithExpiration(ctx context.Context, key, value any, exp Expiration) error
	// Read returns the value stored under key and whether it was present.
	Read(ctx context.Context, key any) (any, bool, error)
	// Remove deletes key and returns the value it held, if any.
	Remove(ctx context.Context, key any) (any, bool, error)
	// Clear removes all entries.
	Clear(ctx context.Context) error
}

// Middleware describes a service middleware.
type Middleware func(Service) Service

// ApplyMiddleware applies middlewares to a service.
func ApplyMiddleware(svc Service, mw ...Middleware) Service {
	// Apply each middleware in the chain
	for _, m := range mw {
		svc = m(svc)
	}
	// Return the decorated service
	return svc
}

// Innermost strips every middleware that exposes Unwrap and returns the service it decorates.
func Innermost(svc Service) Service { //nolint:ireturn
	for {
		wrapper, ok := svc.(interface{ Unwrap() Service })
		if !ok {
			return svc
		}

		svc = wrapper.Unwrap()
	}
}

// ReadAs reads key and asserts the stored value to T. A present value of another type fails
// with sentinel.ErrInvalidType.
func ReadAs[T any](ctx context.Context, svc Service, key any) (T, bool, error) {
	var zero T

	value, ok, err := svc.Read(ctx, key)
	if err != nil || !ok {
		return zero, ok, err
	}

	if value == nil {
		return zero, true, nil
	}

	typed, isT := value.(T)
	if !isT {
		return zero, true, ewrap.Wrapf(sentinel.ErrInvalidType, "want %T, got %T", zero, value)
	}

	return typed, true, nil
}
