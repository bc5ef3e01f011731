package event

import (
	"context"
	"sync"
	"time"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutboxProcessorConfig tunes the delivery loop and the retention sweep
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
	// StaleAfter is how long a claimed entry may sit in PROCESSING before a
	// pass releases it; zero disables the release
	StaleAfter time.Duration
}

func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
		StaleAfter:       5 * time.Minute,
	}
}

// OutboxProcessor moves committed outbox entries onto the event bus.
// Entries are claimed before delivery, so several processors may poll the
// same table without delivering an entry twice in one pass.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	bus        shared.EventPublisher
	serializer *EventSerializer
	cfg        OutboxProcessorConfig
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor falls back to the defaults for non-positive batch size
// and intervals, which time.NewTicker would panic on
func NewOutboxProcessor(repo shared.OutboxRepository, bus shared.EventPublisher, serializer *EventSerializer, cfg OutboxProcessorConfig, logger *zap.Logger) *OutboxProcessor {
	defaults := DefaultOutboxProcessorConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}
	return &OutboxProcessor{
		repo:       repo,
		bus:        bus,
		serializer: serializer,
		cfg:        cfg,
		logger:     logger.Named("outbox"),
	}
}

// Start runs the delivery loop, and the retention sweep when enabled, until
// ctx is cancelled or Stop is called
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	p.every(ctx, p.cfg.PollInterval, func(ctx context.Context) { p.ProcessOnce(ctx) })
	if p.cfg.CleanupEnabled {
		p.every(ctx, p.cfg.CleanupInterval, p.purgeSent)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.cfg.BatchSize),
		zap.Duration("poll_interval", p.cfg.PollInterval),
		zap.Bool("cleanup", p.cfg.CleanupEnabled),
	)
	return nil
}

// Stop cancels the loops and waits for an in-flight pass, or for ctx
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

// ProcessOnce runs one delivery pass over new entries and over failed
// entries whose backoff has elapsed. It returns how many were delivered.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) int {
	if p.cfg.StaleAfter > 0 {
		p.releaseStale(ctx)
	}

	batches := []struct {
		name  string
		fetch func() ([]*shared.OutboxEntry, error)
	}{
		{"pending", func() ([]*shared.OutboxEntry, error) { return p.repo.FindPending(ctx, p.cfg.BatchSize) }},
		{"retryable", func() ([]*shared.OutboxEntry, error) { return p.repo.FindRetryable(ctx, time.Now(), p.cfg.BatchSize) }},
	}

	delivered := 0
	for _, batch := range batches {
		entries, err := batch.fetch()
		if err != nil {
			p.logger.Error("failed to load outbox entries", zap.String("batch", batch.name), zap.Error(err))
			break
		}
		delivered += p.deliverBatch(ctx, entries)
	}
	return delivered
}

func (p *OutboxProcessor) deliverBatch(ctx context.Context, entries []*shared.OutboxEntry) int {
	if len(entries) == 0 {
		return 0
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}

	// another processor may have claimed some of them first
	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to claim outbox entries", zap.Int("count", len(ids)), zap.Error(err))
		return 0
	}

	delivered := 0
	for _, entry := range claimed {
		if p.deliver(ctx, entry) {
			delivered++
		}
	}
	return delivered
}

func (p *OutboxProcessor) deliver(ctx context.Context, entry *shared.OutboxEntry) bool {
	fields := []zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("tenant_id", entry.TenantID.String()),
	}

	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = p.bus.Publish(ctx, event)
	}
	if err != nil {
		p.recordFailure(ctx, entry, err, fields)
		return false
	}

	entry.MarkSent()
	if err := p.repo.Update(ctx, entry); err != nil {
		// stays in PROCESSING until releaseStale hands it back; handlers may see it twice
		p.logger.Error("failed to mark outbox entry sent", append(fields, zap.Error(err))...)
		return false
	}
	p.logger.Debug("event delivered", fields...)
	return true
}

func (p *OutboxProcessor) recordFailure(ctx context.Context, entry *shared.OutboxEntry, cause error, fields []zap.Field) {
	entry.MarkFailed(cause.Error())
	fields = append(fields, zap.Int("retry_count", entry.RetryCount), zap.Error(cause))

	if entry.IsDead() {
		p.logger.Warn("event moved to dead letter queue", append(fields,
			zap.String("aggregate_type", entry.AggregateType),
			zap.String("aggregate_id", entry.AggregateID.String()),
		)...)
	} else {
		p.logger.Error("event delivery failed", append(fields, zap.Timep("next_retry_at", entry.NextRetryAt))...)
	}

	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to record delivery failure", zap.String("event_id", entry.EventID.String()), zap.Error(err))
	}
}

func (p *OutboxProcessor) releaseStale(ctx context.Context) {
	cutoff := time.Now().Add(-p.cfg.StaleAfter)
	released, err := p.repo.ReleaseStale(ctx, cutoff)
	switch {
	case err != nil:
		p.logger.Error("failed to release stale outbox entries", zap.Error(err))
	case released > 0:
		p.logger.Warn("released stale outbox entries", zap.Int64("released", released), zap.Time("cutoff", cutoff))
	}
}

// purgeSent deletes sent entries older than the retention window
func (p *OutboxProcessor) purgeSent(ctx context.Context) {
	cutoff := time.Now().Add(-p.cfg.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	switch {
	case err != nil:
		p.logger.Error("failed to purge outbox entries", zap.Error(err))
	case deleted > 0:
		p.logger.Info("purged sent outbox entries", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
}
