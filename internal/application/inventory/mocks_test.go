package inventory

import (
	"context"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStockLineRepository is a mock implementation of StockLineRepository
type MockStockLineRepository struct {
	mock.Mock
}

func (m *MockStockLineRepository) FindByKey(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (*inventory.StockLine, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockLine), args.Error(1)
}

func (m *MockStockLineRepository) FindByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter shared.Filter) ([]inventory.StockLine, int64, error) {
	args := m.Called(ctx, tenantID, warehouseID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]inventory.StockLine), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockLineRepository) Create(ctx context.Context, line *inventory.StockLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

// MockStockLedger is a mock implementation of StockLedger
type MockStockLedger struct {
	mock.Mock
}

func (m *MockStockLedger) GetAvailable(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (int64, error) {
	args := m.Called(ctx, tenantID, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockLedger) move(args mock.Arguments) (*inventory.StockLine, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockLine), args.Error(1)
}

func (m *MockStockLedger) Reserve(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return m.move(m.Called(ctx, tenantID, key, qty))
}

func (m *MockStockLedger) ReleaseReservation(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return m.move(m.Called(ctx, tenantID, key, qty))
}

func (m *MockStockLedger) ConfirmDelivery(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return m.move(m.Called(ctx, tenantID, key, qty))
}

func (m *MockStockLedger) MarkExpectedReturn(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, qty int64, stage inventory.SoldStage) (*inventory.StockLine, error) {
	return m.move(m.Called(ctx, tenantID, key, qty, stage))
}

func (m *MockStockLedger) ReceiveReturn(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return m.move(m.Called(ctx, tenantID, key, qty))
}

// MockStockCache is a mock implementation of StockCache
type MockStockCache struct {
	mock.Mock
}

func (m *MockStockCache) Get(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (*StockLineResponse, bool) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*StockLineResponse), args.Bool(1)
}

func (m *MockStockCache) Set(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, line StockLineResponse) {
	m.Called(ctx, tenantID, key, line)
}

func (m *MockStockCache) Invalidate(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) error {
	args := m.Called(ctx, tenantID, key)
	return args.Error(0)
}

// MockEventRecorder is a mock implementation of EventRecorder
type MockEventRecorder struct {
	mock.Mock
}

func (m *MockEventRecorder) Record(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
