package middleware

import (
	"net/http"
	"time"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader is the request header naming a retry-safe operation
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 255

// Idempotency rejects a repeated Idempotency-Key with 409 DUPLICATE_REQUEST
// for ttl after the first request carrying it succeeded. Requests without the
// header pass through. A failed first attempt releases the key so the client
// can retry it. Store errors fail open.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || store == nil {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			abortWithError(c, dto.ErrCodeInvalidInput, "Idempotency-Key is too long")
			return
		}

		scoped := idempotencyScope(c) + ":" + key
		ctx := c.Request.Context()

		fresh, err := store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			log.Error("Idempotency store unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			abortWithError(c, dto.ErrCodeDuplicateRequest, "Request with this Idempotency-Key was already applied")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Forget(ctx, scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

// idempotencyScope isolates keys per tenant and per route target
func idempotencyScope(c *gin.Context) string {
	tenant := "anonymous"
	if p, ok := authz.FromContext(c.Request.Context()); ok {
		tenant = p.TenantID.String()
	}
	return tenant + ":" + c.Request.Method + ":" + c.Request.URL.Path
}
