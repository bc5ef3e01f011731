package trade

import (
	"context"

	appinv "github.com/erp/fulfillment/internal/application/inventory"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// stockInvalidator drops cached stock snapshots once a transition has
// committed, so a read right after a write never sees the old counters.
// The outbox handler does the same asynchronously for other instances.
type stockInvalidator struct {
	cache  appinv.StockCache
	logger *zap.Logger
}

func (s stockInvalidator) invalidate(ctx context.Context, tenantID uuid.UUID, keys []inventory.StockKey) {
	if s.cache == nil {
		return
	}
	for _, key := range keys {
		if err := s.cache.Invalidate(ctx, tenantID, key); err != nil {
			s.logger.Warn("failed to invalidate stock cache",
				zap.String("stock_key", key.String()),
				zap.Error(err))
		}
	}
}

func lineKeys(lines []*inventory.StockLine) []inventory.StockKey {
	keys := make([]inventory.StockKey, len(lines))
	for i, line := range lines {
		keys[i] = line.Key()
	}
	return keys
}

// entryKeys are the origin-warehouse keys whose expected-return projection
// changes when an entry is created or received
func entryKeys(entry *trade.ExpectedReturnEntry) []inventory.StockKey {
	if entry == nil {
		return nil
	}
	return entry.OriginKeys()
}
