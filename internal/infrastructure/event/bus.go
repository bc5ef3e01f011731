package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/fulfillment/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus delivers outbox events to in-process handlers.
// Publish runs the handlers synchronously in the caller's goroutine.
type InMemoryEventBus struct {
	subs   *subscriptions
	logger *zap.Logger
}

// NewInMemoryEventBus returns a bus with no subscribers
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subs:   newSubscriptions(),
		logger: logger,
	}
}

// Publish hands each event to every matching handler. A failing handler does
// not stop the others; the failures come back joined so the outbox schedules
// a retry of the whole entry.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var errs []error
	for _, event := range events {
		for _, handler := range b.subs.match(event.EventType()) {
			err := deliver(ctx, handler, event)
			if err == nil {
				continue
			}
			b.logger.Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers handler for eventTypes, or for the types the handler
// declares when none are given
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.subs.add(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes every subscription of handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.subs.remove(handler)
}

// HandlerCount returns the number of distinct subscribed handlers
func (b *InMemoryEventBus) HandlerCount() int {
	return b.subs.count()
}

func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.logger.Info("event bus started", zap.Int("handlers", b.HandlerCount()))
	return nil
}

func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.logger.Info("event bus stopped")
	return nil
}

// deliver turns a handler panic into an error
func deliver(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked on %s: %v", event.EventType(), r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
