package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/ewrap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hyp3rd/cacheservice"
	"github.com/hyp3rd/cacheservice/internal/telemetry/attrs"
)

// OTelMetricsMiddleware emits OpenTelemetry metrics for service data operations.
type OTelMetricsMiddleware struct {
	next cacheservice.Service

	// instruments
	calls     metric.Int64Counter
	durations metric.Float64Histogram
}

// NewOTelMetricsMiddleware constructs a metrics middleware using the provided meter.
func NewOTelMetricsMiddleware(next cacheservice.Service, meter metric.Meter) (cacheservice.Service, error) {
	calls, durations, err := instruments(meter)
	if err != nil {
		return nil, err
	}

	return &OTelMetricsMiddleware{next: next, calls: calls, durations: durations}, nil
}

// OTelMetrics creates the instruments once and returns a middleware sharing them across caches.
func OTelMetrics(meter metric.Meter) (cacheservice.Middleware, error) {
	calls, durations, err := instruments(meter)
	if err != nil {
		return nil, err
	}

	return func(next cacheservice.Service) cacheservice.Service {
		return &OTelMetricsMiddleware{next: next, calls: calls, durations: durations}
	}, nil
}

func instruments(meter metric.Meter) (metric.Int64Counter, metric.Float64Histogram, error) {
	calls, err := meter.Int64Counter("cacheservice.calls")
	if err != nil {
		return nil, nil, ewrap.Wrap(err, "create counter")
	}

	durations, err := meter.Float64Histogram("cacheservice.duration.ms")
	if err != nil {
		return nil, nil, ewrap.Wrap(err, "create histogram")
	}

	return calls, durations, nil
}

// Store implements Service.Store with metrics.
func (mw *OTelMetricsMiddleware) Store(ctx context.Context, key, value any) error {
	start := time.Now()
	err := mw.next.Store(ctx, key, value)
	mw.rec(ctx, "store", start, err)

	return err
}

// StoreWithExpiration implements Service.StoreWithExpiration with metrics.
func (mw *OTelMetricsMiddleware) StoreWithExpiration(ctx context.Context, key, value any, exp cacheservice.Expiration) error {
	start := time.Now()
	err := mw.next.StoreWithExpiration(ctx, key, value, exp)
	mw.rec(ctx, "store", start, err, attribute.Int64(attrs.AttrExpirationMS, exp.LifeTime().Milliseconds()))

	return err
}

// Read implements Service.Read with metrics.
func (mw *OTelMetricsMiddleware) Read(ctx context.Context, key any) (any, bool, error) {
	start := time.Now()
	v, ok, err := mw.next.Read(ctx, key)
	mw.rec(ctx, "read", start, err, attribute.Bool(attrs.AttrHit, ok))

	return v, ok, err
}

// Remove implements Service.Remove with metrics.
func (mw *OTelMetricsMiddleware) Remove(ctx context.Context, key any) (any, bool, error) {
	start := time.Now()
	v, ok, err := mw.next.Remove(ctx, key)
	mw.rec(ctx, "remove", start, err, attribute.Bool(attrs.AttrHit, ok))

	return v, ok, err
}

// Clear implements Service.Clear with metrics.
func (mw *OTelMetricsMiddleware) Clear(ctx context.Context) error {
	start := time.Now()
	err := mw.next.Clear(ctx)
	mw.rec(ctx, "clear", start, err)

	return err
}

// MaxAge returns the default lifespan.
func (mw *OTelMetricsMiddleware) MaxAge() time.Duration { return mw.next.MaxAge() }

// MaxAgeIn returns the default lifespan in unit.
func (mw *OTelMetricsMiddleware) MaxAgeIn(unit time.Duration) int64 { return mw.next.MaxAgeIn(unit) }

// SetMaxAge replaces the default lifespan.
func (mw *OTelMetricsMiddleware) SetMaxAge(maxAge time.Duration) error {
	return mw.next.SetMaxAge(maxAge)
}

// DefaultExpiration returns the default policy.
func (mw *OTelMetricsMiddleware) DefaultExpiration() cacheservice.Expiration {
	return mw.next.DefaultExpiration()
}

// SetDefaultExpiration replaces the default policy.
func (mw *OTelMetricsMiddleware) SetDefaultExpiration(exp cacheservice.Expiration) error {
	return mw.next.SetDefaultExpiration(exp)
}

// Name returns the cache name.
func (mw *OTelMetricsMiddleware) Name() string { return mw.next.Name() }

// State returns the lifecycle state.
func (mw *OTelMetricsMiddleware) State() cacheservice.State { return mw.next.State() }

// Close stops the underlying service.
func (mw *OTelMetricsMiddleware) Close(ctx context.Context) error { return mw.next.Close(ctx) }

// Unwrap returns the decorated service.
func (mw *OTelMetricsMiddleware) Unwrap() cacheservice.Service { return mw.next } //nolint:ireturn

// rec records call count and duration with attributes.
func (mw *OTelMetricsMiddleware) rec(ctx context.Context, op string, start time.Time, err error, extra ...attribute.KeyValue) {
	base := []attribute.KeyValue{
		attribute.String(attrs.AttrCacheName, mw.next.Name()),
		attribute.String(attrs.AttrOperation, op),
		attribute.String(attrs.AttrOutcome, outcome(err)),
	}
	if len(extra) > 0 {
		base = append(base, extra...)
	}

	mw.calls.Add(ctx, 1, metric.WithAttributes(base...))
	mw.durations.Record(ctx, float64(time.Since(start))/float64(time.Millisecond), metric.WithAttributes(base...))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
