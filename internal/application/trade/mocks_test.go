package trade

import (
	"context"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSalesOrderRepository is a mock implementation of SalesOrderRepository
type MockSalesOrderRepository struct {
	mock.Mock
}

func (m *MockSalesOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.SalesOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.SalesOrder, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]trade.SalesOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockSalesOrderRepository) ExistsByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockSalesOrderRepository) Create(ctx context.Context, order *trade.SalesOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockSalesOrderRepository) SaveWithLock(ctx context.Context, order *trade.SalesOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockSalesOrderRepository) Delete(ctx context.Context, order *trade.SalesOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockExpectedReturnRepository is a mock implementation of ExpectedReturnRepository
type MockExpectedReturnRepository struct {
	mock.Mock
}

func (m *MockExpectedReturnRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.ExpectedReturnEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.ExpectedReturnEntry), args.Error(1)
}

func (m *MockExpectedReturnRepository) FindPendingByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*trade.ExpectedReturnEntry, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.ExpectedReturnEntry), args.Error(1)
}

func (m *MockExpectedReturnRepository) FindPendingByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter shared.Filter) ([]trade.ExpectedReturnEntry, int64, error) {
	args := m.Called(ctx, tenantID, warehouseID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]trade.ExpectedReturnEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockExpectedReturnRepository) Create(ctx context.Context, entry *trade.ExpectedReturnEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockExpectedReturnRepository) SaveWithLock(ctx context.Context, entry *trade.ExpectedReturnEntry) error {
	args := m.Called(ctx, entry)
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

// memoryLedger applies movements to in-memory stock lines
type memoryLedger struct {
	lines map[string]*inventory.StockLine
	calls []inventory.Movement
}

func newMemoryLedger(lines ...*inventory.StockLine) *memoryLedger {
	l := &memoryLedger{lines: make(map[string]*inventory.StockLine)}
	for _, line := range lines {
		line.ClearDomainEvents()
		l.lines[line.Key().String()] = line
	}
	return l
}

func (l *memoryLedger) apply(m inventory.Movement) (*inventory.StockLine, error) {
	l.calls = append(l.calls, m)
	line, ok := l.lines[m.Key.String()]
	if !ok {
		return nil, shared.NewNotFoundError("StockLine", m.Key.String())
	}
	if err := line.Apply(m); err != nil {
		return nil, err
	}
	return line, nil
}

func (l *memoryLedger) GetAvailable(_ context.Context, _ uuid.UUID, key inventory.StockKey) (int64, error) {
	line, ok := l.lines[key.String()]
	if !ok {
		return 0, shared.NewNotFoundError("StockLine", key.String())
	}
	return line.Available(), nil
}

func (l *memoryLedger) Reserve(_ context.Context, _ uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return l.apply(inventory.Movement{Kind: inventory.MovementReserve, Key: key, Quantity: qty})
}

func (l *memoryLedger) ReleaseReservation(_ context.Context, _ uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return l.apply(inventory.Movement{Kind: inventory.MovementReleaseReservation, Key: key, Quantity: qty})
}

func (l *memoryLedger) ConfirmDelivery(_ context.Context, _ uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return l.apply(inventory.Movement{Kind: inventory.MovementConfirmDelivery, Key: key, Quantity: qty})
}

func (l *memoryLedger) MarkExpectedReturn(_ context.Context, _ uuid.UUID, key inventory.StockKey, qty int64, stage inventory.SoldStage) (*inventory.StockLine, error) {
	return l.apply(inventory.Movement{Kind: inventory.MovementMarkExpectedReturn, Key: key, Quantity: qty, Stage: stage})
}

func (l *memoryLedger) ReceiveReturn(_ context.Context, _ uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return l.apply(inventory.Movement{Kind: inventory.MovementReceiveReturn, Key: key, Quantity: qty})
}
