package persistence

import (
	"context"

	appinv "github.com/erp/fulfillment/internal/application/inventory"
	apptrade "github.com/erp/fulfillment/internal/application/trade"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/trade"
	"gorm.io/gorm"
)

// RecorderFactory binds an event recorder to a transaction.
// The outbox publisher's Recorder method satisfies it.
type RecorderFactory func(tx *gorm.DB) shared.EventRecorder

func discardEvents(*gorm.DB) shared.EventRecorder {
	return shared.NoOpEventRecorder{}
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx       *gorm.DB
	recorder RecorderFactory
}

// StockRepo returns the stock line repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockRepo() inventory.StockLineRepository {
	return NewGormStockLineRepository(r.tx)
}

// OrderRepo returns the sales order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) OrderRepo() trade.SalesOrderRepository {
	return NewGormSalesOrderRepository(r.tx)
}

// ReturnRepo returns the expected-return repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ReturnRepo() trade.ExpectedReturnRepository {
	return NewGormExpectedReturnRepository(r.tx)
}

// Ledger returns the stock ledger scoped to the current transaction.
func (r *gormTransactionalRepositories) Ledger() inventory.StockLedger {
	return NewGormStockLedger(r.tx)
}

// Events returns the outbox recorder scoped to the current transaction.
func (r *gormTransactionalRepositories) Events() shared.EventRecorder {
	return r.recorder(r.tx)
}

// GormTransactionScope implements both the inventory and trade
// TransactionScope using GORM transactions.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
type GormTransactionScope struct {
	db       *gorm.DB
	recorder RecorderFactory
}

// NewGormTransactionScope creates a new GormTransactionScope. A nil
// factory discards recorded events.
func NewGormTransactionScope(db *gorm.DB, recorder RecorderFactory) *GormTransactionScope {
	if recorder == nil {
		recorder = discardEvents
	}
	return &GormTransactionScope{db: db, recorder: recorder}
}

func (s *GormTransactionScope) run(ctx context.Context, fn func(r *gormTransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, recorder: s.recorder})
	})
}

// Inventory returns the scope as seen by the stock service
func (s *GormTransactionScope) Inventory() appinv.TransactionScope {
	return inventoryScope{s}
}

// Trade returns the scope as seen by the fulfillment services
func (s *GormTransactionScope) Trade() apptrade.TransactionScope {
	return tradeScope{s}
}

type inventoryScope struct{ *GormTransactionScope }

func (s inventoryScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.run(ctx, func(r *gormTransactionalRepositories) error { return fn(r) })
}

type tradeScope struct{ *GormTransactionScope }

func (s tradeScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return s.run(ctx, func(r *gormTransactionalRepositories) error { return fn(r) })
}

var (
	_ appinv.TransactionScope            = inventoryScope{}
	_ apptrade.TransactionScope          = tradeScope{}
	_ appinv.TransactionalRepositories   = (*gormTransactionalRepositories)(nil)
	_ apptrade.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
