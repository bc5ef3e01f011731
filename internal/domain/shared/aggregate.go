package shared

import (
	"time"

	"github.com/google/uuid"
)

// TenantAggregateRoot is the common state of a tenant-owned aggregate:
// identity, audit timestamps, the optimistic-lock version and the events
// raised since the aggregate was loaded.
//
// Version starts at 1. Repositories compare it on save and bump it once per
// committed change, so a stale copy fails with ErrConcurrencyConflict.
type TenantAggregateRoot struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int

	pending []DomainEvent
}

// NewTenantAggregateRoot returns the root of a new aggregate in tenantID
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	now := time.Now()
	return TenantAggregateRoot{
		ID:        uuid.New(),
		TenantID:  tenantID,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// BelongsTo reports whether the aggregate is owned by tenantID
func (a *TenantAggregateRoot) BelongsTo(tenantID uuid.UUID) bool {
	return a.TenantID == tenantID
}

// Touch refreshes UpdatedAt
func (a *TenantAggregateRoot) Touch() {
	a.UpdatedAt = time.Now()
}

func (a *TenantAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent queues an event for the outbox
func (a *TenantAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns the queued events in the order they were raised
func (a *TenantAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.pending
}

func (a *TenantAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}
