package inventory

import (
	"context"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
)

// TransactionScope provides transactional access to stock repositories.
// All repository operations inside Execute commit or roll back together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to stock repositories within a transaction
type TransactionalRepositories interface {
	// StockRepo returns the stock line repository scoped to the current transaction
	StockRepo() inventory.StockLineRepository
	// Ledger returns the stock ledger scoped to the current transaction
	Ledger() inventory.StockLedger
	// Events returns the outbox recorder scoped to the current transaction
	Events() shared.EventRecorder
}

// NoOpTransactionScope runs the function without a real transaction
type NoOpTransactionScope struct {
	stockRepo inventory.StockLineRepository
	ledger    inventory.StockLedger
	events    shared.EventRecorder
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
// A nil recorder discards events.
func NewNoOpTransactionScope(stockRepo inventory.StockLineRepository, ledger inventory.StockLedger, events shared.EventRecorder) *NoOpTransactionScope {
	if events == nil {
		events = shared.NoOpEventRecorder{}
	}
	return &NoOpTransactionScope{stockRepo: stockRepo, ledger: ledger, events: events}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockRepo returns the stock line repository
func (s *NoOpTransactionScope) StockRepo() inventory.StockLineRepository {
	return s.stockRepo
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
