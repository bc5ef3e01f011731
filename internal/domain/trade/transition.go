package trade

import (
	"fmt"
	"slices"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
)

// transitionRule describes when a trigger may fire and where it leads.
// An empty target leaves the status unchanged.
type transitionRule struct {
	from     []OrderStatus
	qc       []QCStatus
	target   OrderStatus
	movement inventory.MovementKind
}

var preDispatch = []OrderStatus{OrderStatusPending, OrderStatusConfirmed}

var transitionRules = map[Trigger]transitionRule{
	TriggerConfirm:   {from: []OrderStatus{OrderStatusPending}, target: OrderStatusConfirmed},
	TriggerApproveQC: {from: preDispatch, qc: []QCStatus{QCStatusNone, QCStatusPending}},
	TriggerRejectQC:  {from: preDispatch},
	TriggerDispatch: {
		from:     preDispatch,
		qc:       []QCStatus{QCStatusApproved},
		target:   OrderStatusDispatched,
		movement: inventory.MovementReserve,
	},
	TriggerDeliver: {
		from:     []OrderStatus{OrderStatusDispatched},
		target:   OrderStatusDelivered,
		movement: inventory.MovementReleaseReservation,
	},
	TriggerConfirmDelivered: {
		from:     []OrderStatus{OrderStatusDelivered},
		target:   OrderStatusConfirmedDelivered,
		movement: inventory.MovementConfirmDelivery,
	},
	TriggerMarkExpectedReturn: {
		from:     []OrderStatus{OrderStatusDelivered},
		target:   OrderStatusExpectedReturn,
		movement: inventory.MovementMarkExpectedReturn,
	},
	TriggerReceiveReturn: {
		from:     []OrderStatus{OrderStatusExpectedReturn},
		target:   OrderStatusReturned,
		movement: inventory.MovementReceiveReturn,
	},
	TriggerCancel: {from: preDispatch, target: OrderStatusCancelled},
	TriggerDelete: {from: preDispatch},
}

// NewIllegalTransitionError builds the error naming the current state and the requested trigger
func NewIllegalTransitionError(status OrderStatus, qc QCStatus, trigger Trigger) *shared.DomainError {
	return shared.NewDomainError(shared.CodeIllegalTransition,
		fmt.Sprintf("Cannot %s order in %s status (qc %s)", trigger, status, qc)).
		WithDetail("status", string(status)).
		WithDetail("qc_status", string(qc)).
		WithDetail("trigger", string(trigger))
}

// CanFire checks whether the trigger is legal for the order's current status and QC status
func (o *SalesOrder) CanFire(trigger Trigger) error {
	rule, ok := transitionRules[trigger]
	if !ok {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown trigger %q", trigger))
	}
	if !slices.Contains(rule.from, o.Status) {
		return NewIllegalTransitionError(o.Status, o.QCStatus, trigger)
	}
	if len(rule.qc) > 0 && !slices.Contains(rule.qc, o.QCStatus) {
		return NewIllegalTransitionError(o.Status, o.QCStatus, trigger)
	}
	return nil
}

// LedgerMovement returns the stock movement a trigger applies to every order line, if any
func LedgerMovement(trigger Trigger) (inventory.MovementKind, bool) {
	rule, ok := transitionRules[trigger]
	if !ok || rule.movement == "" {
		return "", false
	}
	return rule.movement, true
}

// AvailableTriggers lists the triggers that are legal in the order's current state
func (o *SalesOrder) AvailableTriggers() []Trigger {
	triggers := make([]Trigger, 0, len(AllTriggers))
	for _, t := range AllTriggers {
		if o.CanFire(t) == nil {
			triggers = append(triggers, t)
		}
	}
	return triggers
}
