package trade

import (
	"fmt"
	"time"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
)

// ReturnStatus represents the status of an expected-return entry
type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusReceived ReturnStatus = "received"
)

// IsValid checks if the return status is valid
func (s ReturnStatus) IsValid() bool {
	return s == ReturnStatusPending || s == ReturnStatusReceived
}

// String returns the string representation of ReturnStatus
func (s ReturnStatus) String() string {
	return string(s)
}

// ExpectedReturnLine is one product line awaiting physical return
type ExpectedReturnLine struct {
	ID        uuid.UUID
	EntryID   uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int64
}

// ExpectedReturnEntry tracks the units of one order that are expected back.
// There is exactly one entry per order. Once created it lives independently
// of the order and may be received at any warehouse.
type ExpectedReturnEntry struct {
	shared.TenantAggregateRoot
	OrderID             uuid.UUID
	OrderNumber         string
	WarehouseID         uuid.UUID
	Lines               []ExpectedReturnLine
	Status              ReturnStatus
	ReceivedWarehouseID *uuid.UUID
	ReceivedAt          *time.Time
}

// NewExpectedReturnEntry creates a pending entry holding every line of the order
func NewExpectedReturnEntry(order *SalesOrder) (*ExpectedReturnEntry, error) {
	if order == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order is required")
	}
	if len(order.Lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Cannot expect a return for an order without lines")
	}

	entry := &ExpectedReturnEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(order.TenantID),
		OrderID:             order.ID,
		OrderNumber:         order.OrderNumber,
		WarehouseID:         order.WarehouseID,
		Lines:               make([]ExpectedReturnLine, 0, len(order.Lines)),
		Status:              ReturnStatusPending,
	}
	for _, line := range order.Lines {
		entry.Lines = append(entry.Lines, ExpectedReturnLine{
			ID:        uuid.New(),
			EntryID:   entry.ID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
	}

	entry.AddDomainEvent(NewExpectedReturnCreatedEvent(entry))
	return entry, nil
}

// IsPending reports whether the entry still awaits receipt
func (e *ExpectedReturnEntry) IsPending() bool {
	return e.Status == ReturnStatusPending
}

// Receive marks the entry received at the given warehouse, which may differ
// from the warehouse the order was dispatched from
func (e *ExpectedReturnEntry) Receive(warehouseID uuid.UUID) error {
	if warehouseID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Receiving warehouse ID cannot be empty")
	}
	if e.Status == ReturnStatusReceived {
		return shared.NewDomainError(shared.CodeAlreadyReceived,
			fmt.Sprintf("Expected return %s was already received", e.ID)).
			WithDetail("entry_id", e.ID.String())
	}

	now := time.Now()
	e.Status = ReturnStatusReceived
	e.ReceivedWarehouseID = &warehouseID
	e.ReceivedAt = &now
	e.UpdatedAt = now

	e.AddDomainEvent(NewExpectedReturnReceivedEvent(e))
	return nil
}

// OriginKeys returns the ledger key of every line at the dispatching warehouse
func (e *ExpectedReturnEntry) OriginKeys() []inventory.StockKey {
	keys := make([]inventory.StockKey, len(e.Lines))
	for i, line := range e.Lines {
		keys[i] = inventory.NewStockKey(e.WarehouseID, line.ProductID, line.VariantID)
	}
	return keys
}

// ReceiveMovements builds the receiveReturn movements for every line at the
// receiving warehouse
func (e *ExpectedReturnEntry) ReceiveMovements(warehouseID uuid.UUID) ([]inventory.Movement, error) {
	movements := make([]inventory.Movement, 0, len(e.Lines))
	for i, key := range e.OriginKeys() {
		m, err := inventory.NewMovement(inventory.MovementReceiveReturn, key.WithWarehouse(warehouseID), e.Lines[i].Quantity)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, nil
}

// TotalQuantity returns the number of units expected back
func (e *ExpectedReturnEntry) TotalQuantity() int64 {
	var total int64
	for _, line := range e.Lines {
		total += line.Quantity
	}
	return total
}
