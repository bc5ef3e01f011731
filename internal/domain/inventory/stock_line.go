package inventory

import (
	"fmt"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
)

// StockLine holds the fulfillment counters of one product (or variant) at one
// warehouse. It is the aggregate root for all stock ledger operations.
//
// Invariant: Reserved + Delivered + ConfirmedDelivered <= OnHand.
// ExpectedReturn is a read projection of pending expected-return lines and is
// never stored on the line itself.
type StockLine struct {
	shared.TenantAggregateRoot
	WarehouseID        uuid.UUID
	ProductID          uuid.UUID
	VariantID          *uuid.UUID
	OnHand             int64
	Reserved           int64
	Delivered          int64
	ConfirmedDelivered int64
	ExpectedReturn     int64
}

// NewStockLine registers a stock line with an opening on-hand balance
func NewStockLine(tenantID uuid.UUID, key StockKey, openingOnHand int64) (*StockLine, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if openingOnHand < 0 {
		return nil, shared.NewInvalidQuantityError(openingOnHand)
	}

	line := &StockLine{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		WarehouseID:         key.WarehouseID,
		ProductID:           key.ProductID,
		VariantID:           key.VariantID,
		OnHand:              openingOnHand,
	}
	line.AddDomainEvent(NewStockLineRegisteredEvent(line))
	return line, nil
}

// Key returns the strict identity of the line
func (l *StockLine) Key() StockKey {
	return NewStockKey(l.WarehouseID, l.ProductID, l.VariantID)
}

// Committed returns units tied up on the sold side of the ledger
func (l *StockLine) Committed() int64 {
	return l.Reserved + l.Delivered + l.ConfirmedDelivered
}

// Available returns the units that can still be reserved, never negative
func (l *StockLine) Available() int64 {
	available := l.OnHand - l.Committed()
	if available < 0 {
		return 0
	}
	return available
}

// CheckInvariant verifies that no counter is negative and the sold side
// never exceeds on-hand stock
func (l *StockLine) CheckInvariant() error {
	if l.OnHand < 0 || l.Reserved < 0 || l.Delivered < 0 || l.ConfirmedDelivered < 0 || l.ExpectedReturn < 0 {
		return shared.NewDomainError(shared.CodeInvalidQuantity, fmt.Sprintf("Stock line %s has a negative counter", l.Key()))
	}
	if l.Committed() > l.OnHand {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("Stock line %s commits %d units with only %d on hand", l.Key(), l.Committed(), l.OnHand))
	}
	return nil
}

// CanApply reports whether the movement can be applied to the current counters.
// The returned error carries the counter that would be violated.
func (l *StockLine) CanApply(m Movement) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if !m.Key.Equal(l.Key()) {
		return shared.NewNotFoundError("StockLine", m.Key.String())
	}

	d := m.Delta()
	switch {
	case l.Reserved+d.Reserved < 0:
		return insufficient(l, "reserved", l.Reserved, m.Quantity)
	case l.Delivered+d.Delivered < 0:
		return insufficient(l, "delivered", l.Delivered, m.Quantity)
	case l.ConfirmedDelivered+d.ConfirmedDelivered < 0:
		return insufficient(l, "confirmed_delivered", l.ConfirmedDelivered, m.Quantity)
	case d.Sold() > 0 && l.Available() < d.Sold():
		return insufficient(l, "available", l.Available(), m.Quantity)
	}
	return nil
}

// Apply applies a movement to the in-memory counters and records the event
func (l *StockLine) Apply(m Movement) error {
	if err := l.CanApply(m); err != nil {
		return err
	}

	d := m.Delta()
	l.OnHand += d.OnHand
	l.Reserved += d.Reserved
	l.Delivered += d.Delivered
	l.ConfirmedDelivered += d.ConfirmedDelivered
	l.Touch()
	l.IncrementVersion()
	l.RecordMovement(m)
	return nil
}

// RecordMovement records the event of a movement that has already been
// applied, e.g. by an atomic UPDATE in storage
func (l *StockLine) RecordMovement(m Movement) {
	l.AddDomainEvent(NewStockMovedEvent(l, m))
}

func insufficient(l *StockLine, counter string, have, want int64) error {
	return shared.NewDomainError(shared.CodeInsufficientStock,
		fmt.Sprintf("Insufficient %s stock on %s: have %d, need %d", counter, l.Key(), have, want)).
		WithDetail("counter", counter).
		WithDetail("available", have).
		WithDetail("requested", want)
}
