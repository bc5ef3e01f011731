// Package middleware provides the gin middleware chain of the fulfillment API.
package middleware

import (
	"time"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const unmatchedRoute = "unmatched"

type httpMetrics struct {
	requests *telemetry.Counter
	latency  *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	var (
		m   httpMetrics
		err error
	)
	if m.requests, err = telemetry.NewCounter(meter, "http_server_request_total", "HTTP requests served", "{request}"); err != nil {
		return nil, err
	}
	if m.latency, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Buckets:     telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests being served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// observe records one finished request. Latency is keyed by method and
// route only; the counter also carries status and tenant.
func (m *httpMetrics) observe(c *gin.Context, took time.Duration) {
	ctx := c.Request.Context()
	attrs := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(routePattern(c)),
	}
	m.latency.RecordDuration(ctx, took, attrs...)

	attrs = append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
	if p, ok := authz.FromContext(ctx); ok {
		attrs = append(attrs, telemetry.AttrTenantID.String(p.TenantID.String()))
	}
	m.requests.Inc(ctx, attrs...)
}

func passThrough(c *gin.Context) { c.Next() }

// HTTPMetrics records request count, latency and concurrency per route
// pattern. Without an enabled MeterProvider it does nothing.
func HTTPMetrics(mp *telemetry.MeterProvider, log *zap.Logger) gin.HandlerFunc {
	if mp == nil || !mp.IsEnabled() {
		return passThrough
	}
	m, err := newHTTPMetrics(mp.Meter("http.server"))
	if err != nil {
		log.Warn("HTTP metrics disabled", zap.Error(err))
		return passThrough
	}

	return func(c *gin.Context) {
		start := time.Now()
		m.inFlight.Add(c.Request.Context(), 1)
		defer m.inFlight.Add(c.Request.Context(), -1)

		c.Next()
		m.observe(c, time.Since(start))
	}
}

// routePattern keeps series bounded: /api/v1/orders/:id, never the raw path
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
