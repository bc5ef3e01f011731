package handler

import (
	"context"

	"github.com/erp/fulfillment/internal/application/event"
	invapp "github.com/erp/fulfillment/internal/application/inventory"
	tradeapp "github.com/erp/fulfillment/internal/application/trade"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) Create(ctx context.Context, tenantID uuid.UUID, req tradeapp.CreateOrderRequest) (*tradeapp.OrderResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

func (m *mockOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.OrderResponse, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

func (m *mockOrderService) List(ctx context.Context, tenantID uuid.UUID, filter tradeapp.OrderListFilter) (*shared.Paginated[tradeapp.OrderListItemResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[tradeapp.OrderListItemResponse]), args.Error(1)
}

func (m *mockOrderService) Transition(ctx context.Context, tenantID, orderID uuid.UUID, req tradeapp.TransitionRequest) (*tradeapp.TransitionResult, error) {
	args := m.Called(ctx, tenantID, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.TransitionResult), args.Error(1)
}

func (m *mockOrderService) Delete(ctx context.Context, tenantID, orderID uuid.UUID) error {
	args := m.Called(ctx, tenantID, orderID)
	return args.Error(0)
}

type mockExpectedReturnService struct {
	mock.Mock
}

func (m *mockExpectedReturnService) FindPendingByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.ExpectedReturnResponse, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ExpectedReturnResponse), args.Error(1)
}

func (m *mockExpectedReturnService) Receive(ctx context.Context, tenantID, entryID uuid.UUID, req tradeapp.ReceiveReturnRequest) (*tradeapp.TransitionResult, error) {
	args := m.Called(ctx, tenantID, entryID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.TransitionResult), args.Error(1)
}

func (m *mockExpectedReturnService) ListPendingByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, page, pageSize int) (*shared.Paginated[tradeapp.ExpectedReturnResponse], error) {
	args := m.Called(ctx, tenantID, warehouseID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[tradeapp.ExpectedReturnResponse]), args.Error(1)
}

type mockStockService struct {
	mock.Mock
}

func (m *mockStockService) GetStock(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (*invapp.StockLineResponse, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.StockLineResponse), args.Error(1)
}

func (m *mockStockService) GetAvailable(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (*invapp.AvailabilityResponse, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.AvailabilityResponse), args.Error(1)
}

func (m *mockStockService) ListByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter invapp.StockListFilter) (*shared.Paginated[invapp.StockLineResponse], error) {
	args := m.Called(ctx, tenantID, warehouseID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[invapp.StockLineResponse]), args.Error(1)
}

func (m *mockStockService) Register(ctx context.Context, tenantID, warehouseID uuid.UUID, req invapp.RegisterStockLineRequest) (*invapp.StockLineResponse, error) {
	args := m.Called(ctx, tenantID, warehouseID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invapp.StockLineResponse), args.Error(1)
}

type mockOutboxAdmin struct {
	mock.Mock
}

func (m *mockOutboxAdmin) ListDeadLetters(ctx context.Context, filter event.DeadLetterFilter) (*shared.Paginated[event.OutboxEntryResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[event.OutboxEntryResponse]), args.Error(1)
}

func (m *mockOutboxAdmin) GetEntry(ctx context.Context, id uuid.UUID) (*event.OutboxEntryResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxEntryResponse), args.Error(1)
}

func (m *mockOutboxAdmin) Requeue(ctx context.Context, id uuid.UUID) (*event.OutboxEntryResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxEntryResponse), args.Error(1)
}

func (m *mockOutboxAdmin) RequeueAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOutboxAdmin) Stats(ctx context.Context) (*event.OutboxStatsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxStatsResponse), args.Error(1)
}
