package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate. Events are written to the
// outbox in the same transaction as the state change that produced them.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// AggregateRef names the aggregate an event belongs to
type AggregateRef struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// BaseDomainEvent carries the envelope every event shares. Concrete events
// embed it and add their payload fields.
type BaseDomainEvent struct {
	ID        uuid.UUID    `json:"event_id"`
	Type      string       `json:"event_type"`
	Occurred  time.Time    `json:"occurred_at"`
	Tenant    uuid.UUID    `json:"tenant_id"`
	Aggregate AggregateRef `json:"aggregate"`
}

// NewBaseDomainEvent stamps a new event envelope with a fresh ID and the current time
func NewBaseDomainEvent(eventType, aggregateType string, aggregateID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Occurred:  time.Now(),
		Tenant:    tenantID,
		Aggregate: AggregateRef{Type: aggregateType, ID: aggregateID},
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.Occurred }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Aggregate.ID }
func (e *BaseDomainEvent) AggregateType() string  { return e.Aggregate.Type }
func (e *BaseDomainEvent) TenantID() uuid.UUID    { return e.Tenant }
