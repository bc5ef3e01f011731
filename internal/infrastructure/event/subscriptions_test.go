package event

import (
	"context"
	"testing"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/trade"
	"github.com/stretchr/testify/assert"
)

// recordingHandler keeps every event it sees
type recordingHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.handled = append(h.handled, event)
	return nil
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func TestSubscriptions_MatchByType(t *testing.T) {
	subs := newSubscriptions()
	ledger := &recordingHandler{}
	subs.add(ledger, inventory.EventTypeStockReserved, inventory.EventTypeReservationReleased)

	assert.Equal(t, []shared.EventHandler{ledger}, subs.match(inventory.EventTypeStockReserved))
	assert.Equal(t, []shared.EventHandler{ledger}, subs.match(inventory.EventTypeReservationReleased))
	assert.Empty(t, subs.match(trade.EventTypeSalesOrderCreated))
}

func TestSubscriptions_AllEvents(t *testing.T) {
	subs := newSubscriptions()
	orders := &recordingHandler{}
	audit := &recordingHandler{}
	subs.add(orders, trade.EventTypeSalesOrderStatusChanged)
	subs.add(audit)

	assert.Equal(t, []shared.EventHandler{orders, audit}, subs.match(trade.EventTypeSalesOrderStatusChanged),
		"type-specific handlers run before catch-all ones")
	assert.Equal(t, []shared.EventHandler{audit}, subs.match(inventory.EventTypeReturnReceived))

	// an explicit wildcard among other types collapses to a single catch-all subscription
	subs.add(audit, AllEvents, trade.EventTypeSalesOrderCreated)
	assert.Equal(t, []shared.EventHandler{audit}, subs.match(trade.EventTypeSalesOrderCreated))
}

func TestSubscriptions_AddTwiceIsOneSubscription(t *testing.T) {
	subs := newSubscriptions()
	h := &recordingHandler{}
	subs.add(h, inventory.EventTypeDeliveryConfirmed)
	subs.add(h, inventory.EventTypeDeliveryConfirmed)

	assert.Len(t, subs.match(inventory.EventTypeDeliveryConfirmed), 1)
	assert.Equal(t, 1, subs.count())
}

func TestSubscriptions_Remove(t *testing.T) {
	subs := newSubscriptions()
	keep := &recordingHandler{}
	drop := &recordingHandler{}
	subs.add(keep, trade.EventTypeExpectedReturnCreated)
	subs.add(drop, trade.EventTypeExpectedReturnCreated, trade.EventTypeExpectedReturnReceived)
	subs.add(drop)

	before := subs.match(trade.EventTypeExpectedReturnCreated)
	subs.remove(drop)

	assert.Equal(t, []shared.EventHandler{keep}, subs.match(trade.EventTypeExpectedReturnCreated))
	assert.Empty(t, subs.match(trade.EventTypeExpectedReturnReceived))
	assert.Equal(t, 1, subs.count())
	assert.Len(t, before, 3, "a matched slice is not mutated by later removals")
}
