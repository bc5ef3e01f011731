package trade

import (
	"context"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/trade"
)

// TransitionRecorder records fulfillment metrics
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, trigger, fromStatus, toStatus string, units int64)
	RecordReturnReceived(ctx context.Context, crossWarehouse bool, units int64)
}

// FulfillmentMetricsHandler feeds committed transitions into fulfillment metrics.
// It consumes events from the outbox, so only committed transitions count.
type FulfillmentMetricsHandler struct {
	recorder TransitionRecorder
}

// NewFulfillmentMetricsHandler creates a new FulfillmentMetricsHandler
func NewFulfillmentMetricsHandler(recorder TransitionRecorder) *FulfillmentMetricsHandler {
	return &FulfillmentMetricsHandler{recorder: recorder}
}

// EventTypes returns the event types this handler is interested in
func (h *FulfillmentMetricsHandler) EventTypes() []string {
	return []string{trade.EventTypeSalesOrderStatusChanged, trade.EventTypeExpectedReturnReceived}
}

// Handle records the transition carried by the event
func (h *FulfillmentMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.SalesOrderStatusChangedEvent:
		h.recorder.RecordTransition(ctx, e.Trigger.String(), e.FromStatus.String(), e.ToStatus.String(), e.TotalQuantity)
	case *trade.ExpectedReturnReceivedEvent:
		h.recorder.RecordReturnReceived(ctx, e.ReceivedWarehouseID != e.WarehouseID, e.Quantity)
	}
	return nil
}

var _ shared.EventHandler = (*FulfillmentMetricsHandler)(nil)
