package event

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/erp/fulfillment/internal/domain/shared"
	"go.uber.org/zap"
)

// DeliveryStats counts what an IdempotentHandler did with the events it saw
type DeliveryStats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// IdempotentHandler applies an outbox event to the wrapped handler at most
// once per retention window. The outbox delivers at least once, so every
// consumer with side effects is subscribed through this wrapper.
type IdempotentHandler struct {
	inner   shared.EventHandler
	scope   string
	store   shared.IdempotencyStore
	ttl     time.Duration
	enabled bool
	logger  *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig overrides the retention window and the on/off switch
func WithIdempotencyConfig(cfg shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.ttl = cfg.TTL
		h.enabled = cfg.Enabled
	}
}

// NewIdempotentHandler wraps inner. Keys are scoped by the concrete handler
// type, so two consumers of one event keep separate delivery state.
func NewIdempotentHandler(inner shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	defaults := shared.DefaultIdempotencyConfig()
	h := &IdempotentHandler{
		inner:   inner,
		scope:   fmt.Sprintf("%T", inner),
		store:   store,
		ttl:     defaults.TTL,
		enabled: defaults.Enabled,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WrapHandlersWithIdempotency wraps each handler with the same store and options
func WrapHandlersWithIdempotency(handlers []shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) []shared.EventHandler {
	wrapped := make([]shared.EventHandler, 0, len(handlers))
	for _, h := range handlers {
		wrapped = append(wrapped, NewIdempotentHandler(h, store, logger, opts...))
	}
	return wrapped
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.inner.EventTypes()
}

func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.enabled {
		return h.inner.Handle(ctx, event)
	}

	key := h.scope + ":" + event.EventID().String()
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("handler", h.scope),
	}

	if !h.claim(ctx, key, fields) {
		h.duplicates.Add(1)
		h.logger.Debug("duplicate event skipped", fields...)
		return nil
	}

	if err := h.inner.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		h.logger.Error("event handler failed", append(fields, zap.Error(err))...)
		// release the claim so the outbox retry reaches the handler again
		if err := h.store.Forget(ctx, key); err != nil {
			h.logger.Warn("failed to release idempotency key", append(fields, zap.Error(err))...)
		}
		return err
	}

	h.processed.Add(1)
	return nil
}

// claim reports whether this delivery should run. A store outage lets the
// event through.
func (h *IdempotentHandler) claim(ctx context.Context, key string, fields []zap.Field) bool {
	isNew, err := h.store.MarkProcessed(ctx, key, h.ttl)
	if err != nil {
		h.logger.Warn("idempotency store unavailable, processing anyway", append(fields, zap.Error(err))...)
		return true
	}
	return isNew
}

// Stats returns a snapshot of the delivery counters
func (h *IdempotentHandler) Stats() DeliveryStats {
	return DeliveryStats{
		Processed:  h.processed.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

// Unwrap returns the wrapped handler
func (h *IdempotentHandler) Unwrap() shared.EventHandler {
	return h.inner
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
