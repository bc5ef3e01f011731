package shared

import "context"

// EventHandler consumes delivered outbox events. Delivery is at least once,
// so Handle must tolerate seeing an event again.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the subscribed types; "*" subscribes to all of them
	EventTypes() []string
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus fans delivered events out to in-process handlers
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// EventRecorder records domain events in the current unit of work so they
// commit or roll back together with the state change that raised them
type EventRecorder interface {
	Record(ctx context.Context, events ...DomainEvent) error
}

// NoOpEventRecorder discards events, for units of work outside a database
type NoOpEventRecorder struct{}

func (NoOpEventRecorder) Record(context.Context, ...DomainEvent) error {
	return nil
}
