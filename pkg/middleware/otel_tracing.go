package middleware

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyp3rd/cacheservice"
	"github.com/hyp3rd/cacheservice/internal/telemetry/attrs"
)

// OTelTracingMiddleware wraps cacheservice.Service data operations with OpenTelemetry spans.
type OTelTracingMiddleware struct {
	next   cacheservice.Service
	tracer trace.Tracer
	// static attributes applied to all spans
	commonAttrs []attribute.KeyValue
}

// OTelTracingOption allows configuring the tracing middleware.
type OTelTracingOption func(*OTelTracingMiddleware)

// WithCommonAttributes sets attributes applied to all spans.
func WithCommonAttributes(attributes ...attribute.KeyValue) OTelTracingOption {
	return func(m *OTelTracingMiddleware) { m.commonAttrs = append(m.commonAttrs, attributes...) }
}

// NewOTelTracingMiddleware creates a tracing middleware.
func NewOTelTracingMiddleware(next cacheservice.Service, tracer trace.Tracer, opts ...OTelTracingOption) cacheservice.Service {
	mw := &OTelTracingMiddleware{next: next, tracer: tracer}
	for _, o := range opts {
		o(mw)
	}

	return mw
}

// Tracing adapts NewOTelTracingMiddleware to cacheservice.Middleware.
func Tracing(tracer trace.Tracer, opts ...OTelTracingOption) cacheservice.Middleware {
	return func(next cacheservice.Service) cacheservice.Service {
		return NewOTelTracingMiddleware(next, tracer, opts...)
	}
}

// Store implements Service.Store with tracing.
func (mw *OTelTracingMiddleware) Store(ctx context.Context, key, value any) error {
	exp := mw.next.DefaultExpiration()

	ctx, span := mw.startSpan(ctx, "cacheservice.Store", append(expirationAttrs(exp), keyType(key))...)
	defer span.End()

	err := mw.next.Store(ctx, key, value)
	recordError(span, err)

	return err
}

// StoreWithExpiration implements Service.StoreWithExpiration with tracing.
func (mw *OTelTracingMiddleware) StoreWithExpiration(ctx context.Context, key, value any, exp cacheservice.Expiration) error {
	ctx, span := mw.startSpan(ctx, "cacheservice.StoreWithExpiration", append(expirationAttrs(exp), keyType(key))...)
	defer span.End()

	err := mw.next.StoreWithExpiration(ctx, key, value, exp)
	recordError(span, err)

	return err
}

// Read implements Service.Read with tracing.
func (mw *OTelTracingMiddleware) Read(ctx context.Context, key any) (any, bool, error) {
	ctx, span := mw.startSpan(ctx, "cacheservice.Read", keyType(key))
	defer span.End()

	v, ok, err := mw.next.Read(ctx, key)
	span.SetAttributes(attribute.Bool(attrs.AttrHit, ok))
	recordError(span, err)

	return v, ok, err
}

// Remove implements Service.Remove with tracing.
func (mw *OTelTracingMiddleware) Remove(ctx context.Context, key any) (any, bool, error) {
	ctx, span := mw.startSpan(ctx, "cacheservice.Remove", keyType(key))
	defer span.End()

	v, ok, err := mw.next.Remove(ctx, key)
	span.SetAttributes(attribute.Bool(attrs.AttrHit, ok))
	recordError(span, err)

	return v, ok, err
}

// Clear implements Service.Clear with tracing.
func (mw *OTelTracingMiddleware) Clear(ctx context.Context) error {
	ctx, span := mw.startSpan(ctx, "cacheservice.Clear")
	defer span.End()

	err := mw.next.Clear(ctx)
	recordError(span, err)

	return err
}

// MaxAge returns the default lifespan.
func (mw *OTelTracingMiddleware) MaxAge() time.Duration { return mw.next.MaxAge() }

// MaxAgeIn returns the default lifespan in unit.
func (mw *OTelTracingMiddleware) MaxAgeIn(unit time.Duration) int64 { return mw.next.MaxAgeIn(unit) }

// SetMaxAge replaces the default lifespan.
func (mw *OTelTracingMiddleware) SetMaxAge(maxAge time.Duration) error {
	return mw.next.SetMaxAge(maxAge)
}

// DefaultExpiration returns the default policy.
func (mw *OTelTracingMiddleware) DefaultExpiration() cacheservice.Expiration {
	return mw.next.DefaultExpiration()
}

// SetDefaultExpiration replaces the default policy.
func (mw *OTelTracingMiddleware) SetDefaultExpiration(exp cacheservice.Expiration) error {
	return mw.next.SetDefaultExpiration(exp)
}

// Name returns the cache name.
func (mw *OTelTracingMiddleware) Name() string { return mw.next.Name() }

// State returns the lifecycle state.
func (mw *OTelTracingMiddleware) State() cacheservice.State { return mw.next.State() }

// Close implements Service.Close with tracing.
func (mw *OTelTracingMiddleware) Close(ctx context.Context) error {
	ctx, span := mw.startSpan(ctx, "cacheservice.Close")
	defer span.End()

	err := mw.next.Close(ctx)
	recordError(span, err)

	return err
}

// Unwrap returns the decorated service.
func (mw *OTelTracingMiddleware) Unwrap() cacheservice.Service { return mw.next } //nolint:ireturn

// startSpan starts a span with common and provided attributes.
func (mw *OTelTracingMiddleware) startSpan(ctx context.Context, name string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := mw.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String(attrs.AttrCacheName, mw.next.Name()))

	if len(mw.commonAttrs) > 0 {
		span.SetAttributes(mw.commonAttrs...)
	}

	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}

	return ctx, span
}

func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func keyType(key any) attribute.KeyValue {
	return attribute.String(attrs.AttrKeyType, fmt.Sprintf("%T", key))
}

// expirationAttrs reports eternal components as 0.
func expirationAttrs(exp cacheservice.Expiration) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(attrs.AttrExpirationMS, exp.LifeTime().Milliseconds()),
		attribute.Int64(attrs.AttrIdleMS, exp.IdleTime().Milliseconds()),
	}
}
