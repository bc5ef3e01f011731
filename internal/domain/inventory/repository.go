package inventory

import (
	"context"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
)

// StockLineRepository reads and registers stock lines.
// Counter changes go through StockLedger, never through Save.
type StockLineRepository interface {
	// FindByKey finds the line with exactly this key, including its expected-return projection
	FindByKey(ctx context.Context, tenantID uuid.UUID, key StockKey) (*StockLine, error)

	// FindByWarehouse lists a warehouse's lines with pagination
	FindByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter shared.Filter) ([]StockLine, int64, error)

	// Create registers a new line; ALREADY_EXISTS if the key is taken
	Create(ctx context.Context, line *StockLine) error
}
