package event

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type funcHandler struct {
	types []string
	fn    func(ctx context.Context, event shared.DomainEvent) error
}

func (h *funcHandler) EventTypes() []string { return h.types }

func (h *funcHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.fn(ctx, event)
}

func testEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "SalesOrder", uuid.New(), uuid.New())
	return &e
}

func TestInMemoryEventBus_RunsEveryHandler(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	boom := errors.New("boom")
	var calls []string
	bus.Subscribe(&funcHandler{types: []string{"OrderCreated"}, fn: func(context.Context, shared.DomainEvent) error {
		calls = append(calls, "failing")
		return boom
	}})
	bus.Subscribe(&funcHandler{types: []string{"*"}, fn: func(context.Context, shared.DomainEvent) error {
		calls = append(calls, "wildcard")
		return nil
	}})

	err := bus.Publish(context.Background(), testEvent("OrderCreated"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ElementsMatch(t, []string{"failing", "wildcard"}, calls)
	assert.Equal(t, 1, logs.FilterMessage("handler failed to process event").Len())
}

func TestInMemoryEventBus_RecoversPanics(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(&funcHandler{types: []string{"StockReserved"}, fn: func(context.Context, shared.DomainEvent) error {
		panic("nil map")
	}})

	err := bus.Publish(context.Background(), testEvent("StockReserved"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panicked on StockReserved")
}

func TestInMemoryEventBus_NoHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	assert.NoError(t, bus.Publish(context.Background(), testEvent("Unrouted")))
}
