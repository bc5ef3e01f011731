package inventory

import (
	"context"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"go.uber.org/zap"
)

// StockCacheInvalidationHandler drops cached stock snapshots when a ledger
// movement is delivered from the outbox
type StockCacheInvalidationHandler struct {
	cache  StockCache
	logger *zap.Logger
}

// NewStockCacheInvalidationHandler creates a new handler
func NewStockCacheInvalidationHandler(cache StockCache, logger *zap.Logger) *StockCacheInvalidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockCacheInvalidationHandler{cache: cache, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *StockCacheInvalidationHandler) EventTypes() []string {
	return inventory.StockEventTypes
}

// Handle invalidates the cache entry of the stock line the event refers to
func (h *StockCacheInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var key inventory.StockKey
	switch e := event.(type) {
	case *inventory.StockMovedEvent:
		key = e.Key()
	case *inventory.StockLineRegisteredEvent:
		key = inventory.NewStockKey(e.WarehouseID, e.ProductID, e.VariantID)
	default:
		h.logger.Warn("unexpected event type for stock cache invalidation",
			zap.String("event_type", event.EventType()))
		return nil
	}

	if err := h.cache.Invalidate(ctx, event.TenantID(), key); err != nil {
		h.logger.Warn("failed to invalidate stock cache",
			zap.String("key", key.String()),
			zap.Error(err))
		return err
	}
	return nil
}

var _ shared.EventHandler = (*StockCacheInvalidationHandler)(nil)
