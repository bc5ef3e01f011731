package event

import (
	"context"
	"fmt"

	"github.com/erp/fulfillment/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher writes events into outbox_events inside the caller's
// transaction, so an event exists exactly when its state change committed
type OutboxPublisher struct {
	serializer *EventSerializer
	maxRetries int
}

// OutboxPublisherOption configures an OutboxPublisher
type OutboxPublisherOption func(*OutboxPublisher)

// WithMaxRetries sets the delivery budget of new entries. Values below one
// keep the default.
func WithMaxRetries(n int) OutboxPublisherOption {
	return func(p *OutboxPublisher) {
		if n > 0 {
			p.maxRetries = n
		}
	}
}

func NewOutboxPublisher(serializer *EventSerializer, opts ...OutboxPublisherOption) *OutboxPublisher {
	p := &OutboxPublisher{serializer: serializer, maxRetries: shared.DefaultMaxRetries}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishWithTx encodes events and inserts them through tx
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	entries, err := p.entries(events)
	if err != nil || len(entries) == 0 {
		return err
	}
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

func (p *OutboxPublisher) entries(events []shared.DomainEvent) ([]*shared.OutboxEntry, error) {
	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", event.EventType(), err)
		}
		entry := shared.NewOutboxEntry(event, payload)
		entry.MaxRetries = p.maxRetries
		entries = append(entries, entry)
	}
	return entries, nil
}

// Recorder binds the publisher to tx. It is the RecorderFactory handed to
// the transaction scope.
func (p *OutboxPublisher) Recorder(tx *gorm.DB) shared.EventRecorder {
	return txRecorder{publisher: p, tx: tx}
}

type txRecorder struct {
	publisher *OutboxPublisher
	tx        *gorm.DB
}

func (r txRecorder) Record(ctx context.Context, events ...shared.DomainEvent) error {
	return r.publisher.PublishWithTx(ctx, r.tx, events...)
}
