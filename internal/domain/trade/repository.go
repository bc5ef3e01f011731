package trade

import (
	"context"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
)

// SalesOrderRepository defines the persistence contract for sales orders
type SalesOrderRepository interface {
	// FindByID finds an order with its lines
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrder, error)

	// FindAll lists orders, optionally filtered by "status" and "warehouse_id"
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]SalesOrder, int64, error)

	// ExistsByOrderNumber checks whether an order number is taken
	ExistsByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (bool, error)

	// Create inserts a new order with its lines
	Create(ctx context.Context, order *SalesOrder) error

	// SaveWithLock persists status changes guarded by the loaded version and
	// increments it; CONCURRENCY_CONFLICT if another writer got there first
	SaveWithLock(ctx context.Context, order *SalesOrder) error

	// Delete removes the order and its lines, guarded by the loaded version
	Delete(ctx context.Context, order *SalesOrder) error
}

// ExpectedReturnRepository defines the persistence contract for the expected-return register
type ExpectedReturnRepository interface {
	// FindByID finds an entry with its lines
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ExpectedReturnEntry, error)

	// FindPendingByOrder finds the pending entry of an order
	FindPendingByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*ExpectedReturnEntry, error)

	// FindPendingByWarehouse lists pending entries whose origin is the warehouse
	FindPendingByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter shared.Filter) ([]ExpectedReturnEntry, int64, error)

	// Create inserts a new entry; ALREADY_EXISTS if the order already has one
	Create(ctx context.Context, entry *ExpectedReturnEntry) error

	// SaveWithLock persists the entry status guarded by the loaded version
	SaveWithLock(ctx context.Context, entry *ExpectedReturnEntry) error
}
