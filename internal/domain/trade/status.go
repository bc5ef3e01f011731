package trade

import (
	"fmt"

	"github.com/erp/fulfillment/internal/domain/shared"
)

// OrderStatus represents the fulfillment status of a sales order
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusConfirmed          OrderStatus = "confirmed"
	OrderStatusDispatched         OrderStatus = "dispatched"
	OrderStatusDelivered          OrderStatus = "delivered"
	OrderStatusConfirmedDelivered OrderStatus = "confirmed_delivered"
	OrderStatusExpectedReturn     OrderStatus = "expected_return"
	OrderStatusReturned           OrderStatus = "returned"
	OrderStatusCancelled          OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus value
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDispatched, OrderStatusDelivered,
		OrderStatusConfirmedDelivered, OrderStatusExpectedReturn, OrderStatusReturned, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further trigger can apply
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusConfirmedDelivered || s == OrderStatusReturned || s == OrderStatusCancelled
}

// QCStatus is the quality-control gate of an order, independent of its status
type QCStatus string

const (
	QCStatusNone     QCStatus = "none"
	QCStatusPending  QCStatus = "pending"
	QCStatusApproved QCStatus = "approved"
	QCStatusRejected QCStatus = "rejected"
)

// IsValid checks if the QC status is a valid value
func (s QCStatus) IsValid() bool {
	switch s {
	case QCStatusNone, QCStatusPending, QCStatusApproved, QCStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of QCStatus
func (s QCStatus) String() string {
	return string(s)
}

// Trigger is a requested order transition
type Trigger string

const (
	TriggerConfirm            Trigger = "confirm"
	TriggerApproveQC          Trigger = "approveQC"
	TriggerRejectQC           Trigger = "rejectQC"
	TriggerDispatch           Trigger = "dispatch"
	TriggerDeliver            Trigger = "deliver"
	TriggerConfirmDelivered   Trigger = "confirmDelivered"
	TriggerMarkExpectedReturn Trigger = "markExpectedReturn"
	TriggerReceiveReturn      Trigger = "receiveReturn"
	TriggerCancel             Trigger = "cancel"
	TriggerDelete             Trigger = "delete"
)

// AllTriggers lists every trigger in workflow order
var AllTriggers = []Trigger{
	TriggerConfirm,
	TriggerApproveQC,
	TriggerRejectQC,
	TriggerDispatch,
	TriggerDeliver,
	TriggerConfirmDelivered,
	TriggerMarkExpectedReturn,
	TriggerReceiveReturn,
	TriggerCancel,
	TriggerDelete,
}

// IsValid checks if the trigger is known
func (t Trigger) IsValid() bool {
	_, ok := transitionRules[t]
	return ok
}

// String returns the string representation of Trigger
func (t Trigger) String() string {
	return string(t)
}

// ParseTrigger parses a trigger name, returning INVALID_INPUT for unknown names
func ParseTrigger(s string) (Trigger, error) {
	t := Trigger(s)
	if !t.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown trigger %q", s)).
			WithDetail("trigger", s)
	}
	return t, nil
}
