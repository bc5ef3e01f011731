package persistence

import (
	"context"
	"time"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockLedger implements StockLedger with one conditional UPDATE per
// movement. The guard conditions are evaluated by the database against the
// row it locks, so two writers racing on the same line can never drive a
// counter negative or commit more than is on hand.
type GormStockLedger struct {
	db    *gorm.DB
	lines *GormStockLineRepository
}

// NewGormStockLedger creates a new GormStockLedger
func NewGormStockLedger(db *gorm.DB) *GormStockLedger {
	return &GormStockLedger{db: db, lines: NewGormStockLineRepository(db)}
}

// GetAvailable returns the reservable units of a line
func (l *GormStockLedger) GetAvailable(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (int64, error) {
	if err := key.Validate(); err != nil {
		return 0, err
	}
	line, err := l.lines.FindByKey(ctx, tenantID, key)
	if err != nil {
		return 0, err
	}
	return line.Available(), nil
}

// Reserve moves qty into reserved
func (l *GormStockLedger) Reserve(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return l.apply(ctx, tenantID, inventory.Movement{Kind: inventory.MovementReserve, Key: key, Quantity: qty})
}

// ReleaseReservation moves qty from reserved to delivered
func (l *GormStockLedger) ReleaseReservation(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return l.apply(ctx, tenantID, inventory.Movement{Kind: inventory.MovementReleaseReservation, Key: key, Quantity: qty})
}

// ConfirmDelivery moves qty from delivered to confirmedDelivered
func (l *GormStockLedger) ConfirmDelivery(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return l.apply(ctx, tenantID, inventory.Movement{Kind: inventory.MovementConfirmDelivery, Key: key, Quantity: qty})
}

// MarkExpectedReturn takes qty out of the given sold stage
func (l *GormStockLedger) MarkExpectedReturn(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, qty int64, stage inventory.SoldStage) (*inventory.StockLine, error) {
	m, err := inventory.NewExpectedReturnMovement(key, qty, stage)
	if err != nil {
		return nil, err
	}
	return l.apply(ctx, tenantID, m)
}

// ReceiveReturn adds qty back to onHand
func (l *GormStockLedger) ReceiveReturn(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, qty int64) (*inventory.StockLine, error) {
	return l.apply(ctx, tenantID, inventory.Movement{Kind: inventory.MovementReceiveReturn, Key: key, Quantity: qty})
}

func (l *GormStockLedger) apply(ctx context.Context, tenantID uuid.UUID, m inventory.Movement) (*inventory.StockLine, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	d := m.Delta()
	query := l.db.WithContext(ctx).Model(&models.StockLineModel{}).Scopes(stockKeyScope(tenantID, m.Key))
	updates := map[string]any{
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
	for _, c := range []struct {
		column string
		delta  int64
	}{
		{"on_hand", d.OnHand},
		{"reserved", d.Reserved},
		{"delivered", d.Delivered},
		{"confirmed_delivered", d.ConfirmedDelivered},
	} {
		if c.delta == 0 {
			continue
		}
		updates[c.column] = gorm.Expr(c.column+" + ?", c.delta)
		if c.delta < 0 {
			query = query.Where(c.column+" + ? >= 0", c.delta)
		}
	}
	if sold := d.Sold(); sold > 0 {
		query = query.Where("reserved + delivered + confirmed_delivered + ? <= on_hand + ?", sold, d.OnHand)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}

	line, err := l.lines.FindByKey(ctx, tenantID, m.Key)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		// Re-check against the current counters for a precise error
		if err := line.CanApply(m); err != nil {
			return nil, err
		}
		return nil, shared.ErrConcurrencyConflict
	}

	line.RecordMovement(m)
	return line, nil
}

// Ensure GormStockLedger implements StockLedger
var _ inventory.StockLedger = (*GormStockLedger)(nil)
