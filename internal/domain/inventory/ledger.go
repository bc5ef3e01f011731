package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockLedger is the authoritative store of stock counters.
//
// Every mutating operation is a single atomic conditional update on the
// stock line row, so concurrent callers touching the same line serialize
// in storage rather than through a read-then-write race. Each operation
// returns the line as it is after the movement, with the movement event
// recorded on it.
//
// All operations fail with NOT_FOUND when the line does not exist and with
// INVALID_QUANTITY when qty <= 0.
type StockLedger interface {
	// GetAvailable returns onHand - reserved - delivered - confirmedDelivered, clamped to >= 0
	GetAvailable(ctx context.Context, tenantID uuid.UUID, key StockKey) (int64, error)

	// Reserve moves qty into reserved, failing with INSUFFICIENT_STOCK if less is available
	Reserve(ctx context.Context, tenantID uuid.UUID, key StockKey, qty int64) (*StockLine, error)

	// ReleaseReservation moves qty from reserved to delivered
	ReleaseReservation(ctx context.Context, tenantID uuid.UUID, key StockKey, qty int64) (*StockLine, error)

	// ConfirmDelivery moves qty from delivered to confirmedDelivered
	ConfirmDelivery(ctx context.Context, tenantID uuid.UUID, key StockKey, qty int64) (*StockLine, error)

	// MarkExpectedReturn takes qty out of the given sold stage without returning it to onHand
	MarkExpectedReturn(ctx context.Context, tenantID uuid.UUID, key StockKey, qty int64, stage SoldStage) (*StockLine, error)

	// ReceiveReturn adds qty back to onHand
	ReceiveReturn(ctx context.Context, tenantID uuid.UUID, key StockKey, qty int64) (*StockLine, error)
}

// ApplyMovement dispatches a movement to the matching ledger operation
func ApplyMovement(ctx context.Context, ledger StockLedger, tenantID uuid.UUID, m Movement) (*StockLine, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	switch m.Kind {
	case MovementReserve:
		return ledger.Reserve(ctx, tenantID, m.Key, m.Quantity)
	case MovementReleaseReservation:
		return ledger.ReleaseReservation(ctx, tenantID, m.Key, m.Quantity)
	case MovementConfirmDelivery:
		return ledger.ConfirmDelivery(ctx, tenantID, m.Key, m.Quantity)
	case MovementMarkExpectedReturn:
		return ledger.MarkExpectedReturn(ctx, tenantID, m.Key, m.Quantity, m.Stage)
	default:
		return ledger.ReceiveReturn(ctx, tenantID, m.Key, m.Quantity)
	}
}
