package inventory

import (
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeStockLine = "StockLine"

// Event type constants
const (
	EventTypeStockLineRegistered  = "StockLineRegistered"
	EventTypeStockReserved        = "StockReserved"
	EventTypeReservationReleased  = "ReservationReleased"
	EventTypeDeliveryConfirmed    = "DeliveryConfirmed"
	EventTypeExpectedReturnMarked = "ExpectedReturnMarked"
	EventTypeReturnReceived       = "ReturnReceived"
)

// StockEventTypes lists every event type that changes a stock line's counters
var StockEventTypes = []string{
	EventTypeStockLineRegistered,
	EventTypeStockReserved,
	EventTypeReservationReleased,
	EventTypeDeliveryConfirmed,
	EventTypeExpectedReturnMarked,
	EventTypeReturnReceived,
}

var movementEventTypes = map[MovementKind]string{
	MovementReserve:            EventTypeStockReserved,
	MovementReleaseReservation: EventTypeReservationReleased,
	MovementConfirmDelivery:    EventTypeDeliveryConfirmed,
	MovementMarkExpectedReturn: EventTypeExpectedReturnMarked,
	MovementReceiveReturn:      EventTypeReturnReceived,
}

// StockLineRegisteredEvent is raised when a stock line is registered with an opening balance
type StockLineRegisteredEvent struct {
	shared.BaseDomainEvent
	StockLineID uuid.UUID  `json:"stock_line_id"`
	WarehouseID uuid.UUID  `json:"warehouse_id"`
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	OnHand      int64      `json:"on_hand"`
}

// NewStockLineRegisteredEvent creates a new StockLineRegisteredEvent
func NewStockLineRegisteredEvent(line *StockLine) *StockLineRegisteredEvent {
	return &StockLineRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLineRegistered, AggregateTypeStockLine, line.ID, line.TenantID),
		StockLineID:     line.ID,
		WarehouseID:     line.WarehouseID,
		ProductID:       line.ProductID,
		VariantID:       line.VariantID,
		OnHand:          line.OnHand,
	}
}

// EventType returns the event type name
func (e *StockLineRegisteredEvent) EventType() string {
	return EventTypeStockLineRegistered
}

// StockMovedEvent is raised for every ledger movement. Its type is derived
// from the movement kind so subscribers can filter on a single operation.
type StockMovedEvent struct {
	shared.BaseDomainEvent
	StockLineID        uuid.UUID    `json:"stock_line_id"`
	WarehouseID        uuid.UUID    `json:"warehouse_id"`
	ProductID          uuid.UUID    `json:"product_id"`
	VariantID          *uuid.UUID   `json:"variant_id,omitempty"`
	Movement           MovementKind `json:"movement"`
	Stage              SoldStage    `json:"stage,omitempty"`
	Quantity           int64        `json:"quantity"`
	OnHand             int64        `json:"on_hand"`
	Reserved           int64        `json:"reserved"`
	Delivered          int64        `json:"delivered"`
	ConfirmedDelivered int64        `json:"confirmed_delivered"`
}

// NewStockMovedEvent creates a new StockMovedEvent carrying the counters after the movement
func NewStockMovedEvent(line *StockLine, m Movement) *StockMovedEvent {
	evt := &StockMovedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(movementEventTypes[m.Kind], AggregateTypeStockLine, line.ID, line.TenantID),
		StockLineID:        line.ID,
		WarehouseID:        line.WarehouseID,
		ProductID:          line.ProductID,
		VariantID:          line.VariantID,
		Movement:           m.Kind,
		Quantity:           m.Quantity,
		OnHand:             line.OnHand,
		Reserved:           line.Reserved,
		Delivered:          line.Delivered,
		ConfirmedDelivered: line.ConfirmedDelivered,
	}
	if m.Kind == MovementMarkExpectedReturn {
		evt.Stage = m.Stage
	}
	return evt
}

// Key returns the stock key the event refers to
func (e *StockMovedEvent) Key() StockKey {
	return NewStockKey(e.WarehouseID, e.ProductID, e.VariantID)
}
