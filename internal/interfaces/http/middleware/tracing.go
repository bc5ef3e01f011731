package middleware

import (
	"net/http"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing returns the otelgin server-span middleware followed by a
// middleware that tags the span with request and caller identity.
// Register both, in order, after RequestID.
func Tracing(serviceName string, enabled bool) []gin.HandlerFunc {
	if !enabled {
		return nil
	}
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName),
		enrichSpan,
	}
}

func enrichSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		c.Next()
		return
	}

	if requestID := GetRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}

	c.Next()

	// the principal is only known once JWTAuth has run further down the chain
	if p, ok := authz.FromContext(c.Request.Context()); ok {
		span.SetAttributes(
			attribute.String("tenant_id", p.TenantID.String()),
			attribute.String("user_id", p.UserID.String()),
		)
	}
	if status := c.Writer.Status(); status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}
