package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyp3rd/cacheservice"
)

// StatsCollector holds the Prometheus vectors the stats middleware records into.
// One collector is meant to be shared by every cache of a process; series are split by cache name.
type StatsCollector struct {
	calls    *prometheus.CounterVec
	hits     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewStatsCollector creates the vectors and registers them with reg. Vectors already registered
// by an earlier collector are reused.
func NewStatsCollector(reg prometheus.Registerer, namespace string) (*StatsCollector, error) {
	calls, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "operations_total",
		Help:      "Cache service operations by cache, operation and outcome.",
	}, []string{"cache", "operation", "outcome"}))
	if err != nil {
		return nil, err
	}

	hits, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Read and remove lookups by cache and result.",
	}, []string{"cache", "operation", "result"}))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "operation_duration_seconds",
		Help:      "Cache service operation latency.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10), //nolint:mnd
	}, []string{"cache", "operation"}))
	if err != nil {
		return nil, err
	}

	return &StatsCollector{calls: calls, hits: hits, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	var zero C

	return zero, ewrap.Wrap(err, "register cache metrics")
}

// Middleware returns a cacheservice.Middleware recording into the collector.
func (c *StatsCollector) Middleware() cacheservice.Middleware {
	return func(next cacheservice.Service) cacheservice.Service {
		return NewStatsCollectorMiddleware(next, c)
	}
}

func (c *StatsCollector) observe(cache, op string, start time.Time, err error) {
	c.calls.WithLabelValues(cache, op, outcome(err)).Inc()
	c.duration.WithLabelValues(cache, op).Observe(time.Since(start).Seconds())
}

func (c *StatsCollector) lookup(cache, op string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	c.hits.WithLabelValues(cache, op, result).Inc()
}

// StatsCollectorMiddleware records operation counts, latencies and hit ratios in Prometheus.
type StatsCollectorMiddleware struct {
	next      cacheservice.Service
	collector *StatsCollector
}

// NewStatsCollectorMiddleware returns a new StatsCollectorMiddleware.
func NewStatsCollectorMiddleware(next cacheservice.Service, collector *StatsCollector) cacheservice.Service {
	return &StatsCollectorMiddleware{next: next, collector: collector}
}

// Store collects stats for the Store method.
func (mw *StatsCollectorMiddleware) Store(ctx context.Context, key, value any) error {
	start := time.Now()
	err := mw.next.Store(ctx, key, value)
	mw.collector.observe(mw.next.Name(), "store", start, err)

	return err
}

// StoreWithExpiration collects stats for the StoreWithExpiration method.
func (mw *StatsCollectorMiddleware) StoreWithExpiration(ctx context.Context, key, value any, exp cacheservice.Expiration) error {
	start := time.Now()
	err := mw.next.StoreWithExpiration(ctx, key, value, exp)
	mw.collector.observe(mw.next.Name(), "store", start, err)

	return err
}

// Read collects stats for the Read method.
func (mw *StatsCollectorMiddleware) Read(ctx context.Context, key any) (any, bool, error) {
	start := time.Now()

	v, ok, err := mw.next.Read(ctx, key)
	mw.collector.observe(mw.next.Name(), "read", start, err)

	if err == nil {
		mw.collector.lookup(mw.next.Name(), "read", ok)
	}

	return v, ok, err
}

// Remove collects stats for the Remove method.
func (mw *StatsCollectorMiddleware) Remove(ctx context.Context, key any) (any, bool, error) {
	start := time.Now()

	v, ok, err := mw.next.Remove(ctx, key)
	mw.collector.observe(mw.next.Name(), "remove", start, err)

	if err == nil {
		mw.collector.lookup(mw.next.Name(), "remove", ok)
	}

	return v, ok, err
}

// Clear collects stats for the Clear method.
func (mw *StatsCollectorMiddleware) Clear(ctx context.Context) error {
	start := time.Now()
	err := mw.next.Clear(ctx)
	mw.collector.observe(mw.next.Name(), "clear", start, err)

	return err
}

// MaxAge returns the default lifespan.
func (mw *StatsCollectorMiddleware) MaxAge() time.Duration { return mw.next.MaxAge() }

// MaxAgeIn returns the default lifespan in unit.
func (mw *StatsCollectorMiddleware) MaxAgeIn(unit time.Duration) int64 { return mw.next.MaxAgeIn(unit) }

// SetMaxAge replaces the default lifespan.
func (mw *StatsCollectorMiddleware) SetMaxAge(maxAge time.Duration) error {
	return mw.next.SetMaxAge(maxAge)
}

// DefaultExpiration returns the default policy.
func (mw *StatsCollectorMiddleware) DefaultExpiration() cacheservice.Expiration {
	return mw.next.DefaultExpiration()
}

// SetDefaultExpiration replaces the default policy.
func (mw *StatsCollectorMiddleware) SetDefaultExpiration(exp cacheservice.Expiration) error {
	return mw.next.SetDefaultExpiration(exp)
}

// Name returns the cache name.
func (mw *StatsCollectorMiddleware) Name() string { return mw.next.Name() }

// State returns the lifecycle state.
func (mw *StatsCollectorMiddleware) State() cacheservice.State { return mw.next.State() }

// Close stops the underlying service.
func (mw *StatsCollectorMiddleware) Close(ctx context.Context) error { return mw.next.Close(ctx) }

// Unwrap returns the decorated service.
func (mw *StatsCollectorMiddleware) Unwrap() cacheservice.Service { return mw.next } //nolint:ireturn
