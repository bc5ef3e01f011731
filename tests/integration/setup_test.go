package integration

import (
	"context"
	"os"
	"testing"

	"github.com/erp/fulfillment/internal/application/authz"
	invapp "github.com/erp/fulfillment/internal/application/inventory"
	tradeapp "github.com/erp/fulfillment/internal/application/trade"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/infrastructure/event"
	"github.com/erp/fulfillment/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// FulfillmentSetup wires the services over a real database the same way
// cmd/server does
type FulfillmentSetup struct {
	DB          *TestDB
	Serializer  *event.EventSerializer
	OutboxRepo  *event.GormOutboxRepository
	Stock       *invapp.StockService
	Orders      *tradeapp.FulfillmentService
	Returns     *tradeapp.ExpectedReturnService
	Logger      *zap.Logger
	TenantID    uuid.UUID
	WarehouseID uuid.UUID
}

func newFulfillmentSetup(t *testing.T, db *TestDB) *FulfillmentSetup {
	t.Helper()

	log := zap.NewNop()
	serializer := event.NewRegisteredSerializer()
	publisher := event.NewOutboxPublisher(serializer)
	txScope := persistence.NewGormTransactionScope(db.DB, publisher.Recorder)
	authorizer := authz.NewContextAuthorizer()

	stockRepo := persistence.NewGormStockLineRepository(db.DB)
	orderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	returnRepo := persistence.NewGormExpectedReturnRepository(db.DB)

	return &FulfillmentSetup{
		DB:          db,
		Serializer:  serializer,
		OutboxRepo:  event.NewGormOutboxRepository(db.DB),
		Stock:       invapp.NewStockService(stockRepo, persistence.NewGormStockLedger(db.DB), txScope.Inventory(), authorizer, log),
		Orders:      tradeapp.NewFulfillmentService(orderRepo, returnRepo, txScope.Trade(), authorizer, log),
		Returns:     tradeapp.NewExpectedReturnService(returnRepo, txScope.Trade(), authorizer, log),
		Logger:      log,
		TenantID:    uuid.New(),
		WarehouseID: uuid.New(),
	}
}

// NewSharedFulfillmentSetup uses the package container with a fresh tenant
func NewSharedFulfillmentSetup(t *testing.T) *FulfillmentSetup {
	t.Helper()
	return newFulfillmentSetup(t, NewSharedTestDB(t))
}

// NewIsolatedFulfillmentSetup uses its own container, for tests that count
// rows across tenants
func NewIsolatedFulfillmentSetup(t *testing.T) *FulfillmentSetup {
	t.Helper()
	return newFulfillmentSetup(t, NewTestDB(t))
}

// Ctx returns a context carrying an operator with every capability in the setup tenant
func (s *FulfillmentSetup) Ctx() context.Context {
	return s.CtxWith(authz.Wildcard)
}

// CtxWith returns a context carrying an operator with the given capabilities
func (s *FulfillmentSetup) CtxWith(permissions ...string) context.Context {
	return authz.WithPrincipal(context.Background(), authz.Principal{
		UserID:      uuid.New(),
		TenantID:    s.TenantID,
		Username:    "integration",
		Permissions: permissions,
	})
}

// RegisterStock registers a stock line at the setup warehouse
func (s *FulfillmentSetup) RegisterStock(t *testing.T, productID uuid.UUID, onHand int64) {
	t.Helper()
	s.RegisterStockAt(t, s.WarehouseID, productID, nil, onHand)
}

// RegisterStockAt registers a stock line at any warehouse
func (s *FulfillmentSetup) RegisterStockAt(t *testing.T, warehouseID, productID uuid.UUID, variantID *uuid.UUID, onHand int64) {
	t.Helper()
	_, err := s.Stock.Register(s.Ctx(), s.TenantID, warehouseID, invapp.RegisterStockLineRequest{
		ProductID: productID,
		VariantID: variantID,
		OnHand:    onHand,
	})
	require.NoError(t, err)
}

// Line is shorthand for an order line request
func Line(productID uuid.UUID, qty int64) tradeapp.CreateOrderLineRequest {
	return tradeapp.CreateOrderLineRequest{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: decimal.NewFromInt(10),
	}
}

// CreateOrder creates a pending order at the setup warehouse
func (s *FulfillmentSetup) CreateOrder(t *testing.T, lines ...tradeapp.CreateOrderLineRequest) *tradeapp.OrderResponse {
	t.Helper()
	order, err := s.Orders.Create(s.Ctx(), s.TenantID, tradeapp.CreateOrderRequest{
		CustomerName: "Integration Customer",
		WarehouseID:  s.WarehouseID,
		Lines:        lines,
	})
	require.NoError(t, err)
	return order
}

// Fire fires a trigger and returns the result
func (s *FulfillmentSetup) Fire(orderID uuid.UUID, trigger string) (*tradeapp.TransitionResult, error) {
	return s.Orders.Transition(s.Ctx(), s.TenantID, orderID, tradeapp.TransitionRequest{Trigger: trigger})
}

// MustFire fires each trigger in order and fails the test on the first error
func (s *FulfillmentSetup) MustFire(t *testing.T, orderID uuid.UUID, triggers ...string) *tradeapp.TransitionResult {
	t.Helper()
	var result *tradeapp.TransitionResult
	for _, trigger := range triggers {
		var err error
		result, err = s.Fire(orderID, trigger)
		require.NoError(t, err, "trigger %s", trigger)
	}
	return result
}

// StockOf reads the stock line of a product at a warehouse
func (s *FulfillmentSetup) StockOf(t *testing.T, warehouseID, productID uuid.UUID) *invapp.StockLineResponse {
	t.Helper()
	line, err := s.Stock.GetStock(s.Ctx(), s.TenantID, inventory.NewStockKey(warehouseID, productID, nil))
	require.NoError(t, err)
	return line
}
