package trade

import (
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeSalesOrder          = "SalesOrder"
	AggregateTypeExpectedReturnEntry = "ExpectedReturnEntry"
)

// Event type constants
const (
	EventTypeSalesOrderCreated       = "SalesOrderCreated"
	EventTypeSalesOrderStatusChanged = "SalesOrderStatusChanged"
	EventTypeExpectedReturnCreated   = "ExpectedReturnCreated"
	EventTypeExpectedReturnReceived  = "ExpectedReturnReceived"
)

// SalesOrderCreatedEvent is raised when an order is created
type SalesOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	LineCount    int             `json:"line_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CustomerName string          `json:"customer_name"`
}

// NewSalesOrderCreatedEvent creates a new SalesOrderCreatedEvent
func NewSalesOrderCreatedEvent(order *SalesOrder) *SalesOrderCreatedEvent {
	return &SalesOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderCreated, AggregateTypeSalesOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		WarehouseID:     order.WarehouseID,
		LineCount:       len(order.Lines),
		TotalAmount:     order.TotalAmount,
		CustomerName:    order.CustomerName,
	}
}

// EventType returns the event type name
func (e *SalesOrderCreatedEvent) EventType() string {
	return EventTypeSalesOrderCreated
}

// SalesOrderStatusChangedEvent is raised for every fired trigger
type SalesOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID   `json:"order_id"`
	OrderNumber   string      `json:"order_number"`
	WarehouseID   uuid.UUID   `json:"warehouse_id"`
	Trigger       Trigger     `json:"trigger"`
	FromStatus    OrderStatus `json:"from_status"`
	ToStatus      OrderStatus `json:"to_status"`
	FromQCStatus  QCStatus    `json:"from_qc_status"`
	ToQCStatus    QCStatus    `json:"to_qc_status"`
	TotalQuantity int64       `json:"total_quantity"`
}

// NewSalesOrderStatusChangedEvent creates a new SalesOrderStatusChangedEvent
func NewSalesOrderStatusChangedEvent(order *SalesOrder, trigger Trigger, from OrderStatus, fromQC QCStatus) *SalesOrderStatusChangedEvent {
	return &SalesOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderStatusChanged, AggregateTypeSalesOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		WarehouseID:     order.WarehouseID,
		Trigger:         trigger,
		FromStatus:      from,
		ToStatus:        order.Status,
		FromQCStatus:    fromQC,
		ToQCStatus:      order.QCStatus,
		TotalQuantity:   order.TotalQuantity(),
	}
}

// EventType returns the event type name
func (e *SalesOrderStatusChangedEvent) EventType() string {
	return EventTypeSalesOrderStatusChanged
}

// ExpectedReturnCreatedEvent is raised when an order is marked as expected return
type ExpectedReturnCreatedEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID `json:"entry_id"`
	OrderID     uuid.UUID `json:"order_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Quantity    int64     `json:"quantity"`
}

// NewExpectedReturnCreatedEvent creates a new ExpectedReturnCreatedEvent
func NewExpectedReturnCreatedEvent(entry *ExpectedReturnEntry) *ExpectedReturnCreatedEvent {
	return &ExpectedReturnCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpectedReturnCreated, AggregateTypeExpectedReturnEntry, entry.ID, entry.TenantID),
		EntryID:         entry.ID,
		OrderID:         entry.OrderID,
		WarehouseID:     entry.WarehouseID,
		Quantity:        entry.TotalQuantity(),
	}
}

// EventType returns the event type name
func (e *ExpectedReturnCreatedEvent) EventType() string {
	return EventTypeExpectedReturnCreated
}

// ExpectedReturnReceivedEvent is raised when returned units are received back into stock
type ExpectedReturnReceivedEvent struct {
	shared.BaseDomainEvent
	EntryID             uuid.UUID `json:"entry_id"`
	OrderID             uuid.UUID `json:"order_id"`
	WarehouseID         uuid.UUID `json:"warehouse_id"`
	ReceivedWarehouseID uuid.UUID `json:"received_warehouse_id"`
	Quantity            int64     `json:"quantity"`
}

// NewExpectedReturnReceivedEvent creates a new ExpectedReturnReceivedEvent
func NewExpectedReturnReceivedEvent(entry *ExpectedReturnEntry) *ExpectedReturnReceivedEvent {
	var received uuid.UUID
	if entry.ReceivedWarehouseID != nil {
		received = *entry.ReceivedWarehouseID
	}
	return &ExpectedReturnReceivedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeExpectedReturnReceived, AggregateTypeExpectedReturnEntry, entry.ID, entry.TenantID),
		EntryID:             entry.ID,
		OrderID:             entry.OrderID,
		WarehouseID:         entry.WarehouseID,
		ReceivedWarehouseID: received,
		Quantity:            entry.TotalQuantity(),
	}
}

// EventType returns the event type name
func (e *ExpectedReturnReceivedEvent) EventType() string {
	return EventTypeExpectedReturnReceived
}
