package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestL_AddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTenantID(ctx, "tenant-1")
	ctx = WithUserID(ctx, "user-1")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	L(ctx).Info("Transition applied")

	a := assert.New(t)
	a.Equal(1, logs.Len())
	fields := logs.All()[0].ContextMap()
	a.Equal("req-1", fields["request_id"])
	a.Equal("tenant-1", fields["tenant_id"])
	a.Equal("user-1", fields["user_id"])
	a.Equal(traceID.String(), fields["trace_id"])
	a.Equal(spanID.String(), fields["span_id"])
}

func TestFields_EmptyContext(t *testing.T) {
	assert.Empty(t, Fields(context.Background()))
	assert.Equal(t, "", GetRequestID(context.Background()))
}

func TestFor_NilBase(t *testing.T) {
	assert.NotPanics(t, func() {
		For(context.Background(), nil).Info("ignored")
	})
}
