package shared

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the delivery state of an outbox entry
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

const (
	DefaultMaxRetries = 5
	// DefaultBaseBackoff is the delay before the first retry; each later
	// retry doubles it up to MaxBackoff
	DefaultBaseBackoff = time.Second
	MaxBackoff         = 5 * time.Minute
)

// outboxMoves lists, per target status, the statuses an entry may move from
var outboxMoves = map[OutboxStatus][]OutboxStatus{
	OutboxStatusProcessing: {OutboxStatusPending, OutboxStatusFailed},
	OutboxStatusSent:       {OutboxStatusProcessing},
	OutboxStatusFailed:     {OutboxStatusProcessing},
	OutboxStatusDead:       {OutboxStatusProcessing},
	OutboxStatusPending:    {OutboxStatusDead},
}

// OutboxEntry is an event stored in the transaction that produced it and
// delivered afterwards by the outbox processor
type OutboxEntry struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOutboxEntry wraps an encoded event as a pending entry
func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	now := time.Now()
	return &OutboxEntry{
		ID:            uuid.New(),
		TenantID:      event.TenantID(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RetryBackoff returns the delay before retry number attempt (from 1)
func RetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := DefaultBaseBackoff
	for i := 1; i < attempt && d < MaxBackoff; i++ {
		d *= 2
	}
	return min(d, MaxBackoff)
}

func (e *OutboxEntry) moveTo(status OutboxStatus) error {
	if !slices.Contains(outboxMoves[status], e.Status) {
		return ErrIllegalTransition.
			WithDetail("from", string(e.Status)).
			WithDetail("to", string(status))
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	return nil
}

// CanRetry reports whether a failed entry still has retry budget
func (e *OutboxEntry) CanRetry() bool {
	return e.Status == OutboxStatusFailed && e.RetryCount < e.MaxRetries
}

func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// MarkProcessing claims a pending or failed entry for delivery
func (e *OutboxEntry) MarkProcessing() error {
	return e.moveTo(OutboxStatusProcessing)
}

// MarkSent records a successful delivery
func (e *OutboxEntry) MarkSent() {
	e.Status = OutboxStatusSent
	e.UpdatedAt = time.Now()
	processed := e.UpdatedAt
	e.ProcessedAt = &processed
}

// MarkFailed records a failed delivery. The entry is scheduled for another
// attempt after RetryBackoff, or goes dead once RetryCount reaches MaxRetries.
func (e *OutboxEntry) MarkFailed(reason string) {
	e.RetryCount++
	e.LastError = reason
	e.UpdatedAt = time.Now()

	if e.RetryCount >= e.MaxRetries {
		e.Status = OutboxStatusDead
		e.NextRetryAt = nil
		return
	}
	e.Status = OutboxStatusFailed
	next := e.UpdatedAt.Add(RetryBackoff(e.RetryCount))
	e.NextRetryAt = &next
}

// ResetForRetry requeues a dead entry with a fresh retry budget
func (e *OutboxEntry) ResetForRetry() error {
	if err := e.moveTo(OutboxStatusPending); err != nil {
		return err
	}
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	return nil
}

// OutboxRepository stores outbox entries
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	// MarkProcessing claims the entries that are still claimable and returns them
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	// ReleaseStale hands PROCESSING entries last touched before the cutoff
	// back to the retry pass and reports how many it released
	ReleaseStale(ctx context.Context, before time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
}
