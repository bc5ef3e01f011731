package trade

import (
	"context"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories a
// fulfillment transition touches. The order row, every stock line and the
// expected-return entry change inside one Execute call or not at all.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction
type TransactionalRepositories interface {
	// OrderRepo returns the sales order repository scoped to the current transaction
	OrderRepo() trade.SalesOrderRepository
	// ReturnRepo returns the expected-return repository scoped to the current transaction
	ReturnRepo() trade.ExpectedReturnRepository
	// Ledger returns the stock ledger scoped to the current transaction
	Ledger() inventory.StockLedger
	// Events returns the outbox recorder scoped to the current transaction
	Events() shared.EventRecorder
}

// NoOpTransactionScope runs the function without a real transaction
type NoOpTransactionScope struct {
	orderRepo  trade.SalesOrderRepository
	returnRepo trade.ExpectedReturnRepository
	ledger     inventory.StockLedger
	events     shared.EventRecorder
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
// A nil recorder discards events.
func NewNoOpTransactionScope(
	orderRepo trade.SalesOrderRepository,
	returnRepo trade.ExpectedReturnRepository,
	ledger inventory.StockLedger,
	events shared.EventRecorder,
) *NoOpTransactionScope {
	if events == nil {
		events = shared.NoOpEventRecorder{}
	}
	return &NoOpTransactionScope{
		orderRepo:  orderRepo,
		returnRepo: returnRepo,
		ledger:     ledger,
		events:     events,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the sales order repository
func (s *NoOpTransactionScope) OrderRepo() trade.SalesOrderRepository {
	return s.orderRepo
}

// ReturnRepo returns the expected-return repository
func (s *NoOpTransactionScope) ReturnRepo() trade.ExpectedReturnRepository {
	return s.returnRepo
}

// Ledger returns the stock ledger
func (s *NoOpTransactionScope) Ledger() inventory.StockLedger {
	return s.ledger
}

// Events returns the event recorder
func (s *NoOpTransactionScope) Events() shared.EventRecorder {
	return s.events
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
