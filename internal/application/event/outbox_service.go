package event

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// requeueBatch bounds how many dead letters RequeueAll loads at once
const requeueBatch = 100

// OutboxService is the operator surface over the event outbox: dead letters
// can be listed, inspected and put back in the delivery queue.
type OutboxService struct {
	repo   shared.OutboxRepository
	authz  authz.Authorizer
	logger *zap.Logger
}

func NewOutboxService(repo shared.OutboxRepository, authorizer authz.Authorizer, logger *zap.Logger) *OutboxService {
	if authorizer == nil {
		authorizer = authz.NewContextAuthorizer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxService{repo: repo, authz: authorizer, logger: logger.Named("outbox-admin")}
}

type OutboxEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func newOutboxEntryResponse(e *shared.OutboxEntry) OutboxEntryResponse {
	return OutboxEntryResponse{
		ID:            e.ID,
		TenantID:      e.TenantID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Status:        string(e.Status),
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		ProcessedAt:   e.ProcessedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// DeadLetterFilter is the page window of a dead letter listing
type DeadLetterFilter struct {
	Page     int `form:"page,omitempty" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,omitempty" binding:"omitempty,min=1,max=100"`
}

func (f DeadLetterFilter) window() (page, size int) {
	page = max(f.Page, 1)
	size = f.PageSize
	if size < 1 {
		size = shared.DefaultPageSize
	}
	return page, min(size, shared.MaxPageSize)
}

// OutboxStatsResponse counts entries per delivery status
type OutboxStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

func (s *OutboxService) ListDeadLetters(ctx context.Context, filter DeadLetterFilter) (*shared.Paginated[OutboxEntryResponse], error) {
	if err := s.authz.Authorize(ctx, authz.PermOutboxManage); err != nil {
		return nil, err
	}

	page, size := filter.window()
	entries, total, err := s.repo.FindDead(ctx, page, size)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}

	items := make([]OutboxEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, newOutboxEntryResponse(e))
	}
	result := shared.NewPaginated(items, total, page, size)
	return &result, nil
}

func (s *OutboxService) GetEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryResponse, error) {
	if err := s.authz.Authorize(ctx, authz.PermOutboxManage); err != nil {
		return nil, err
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := newOutboxEntryResponse(entry)
	return &resp, nil
}

// Requeue moves one dead entry back to PENDING with a fresh retry budget.
// Entries in any other status are rejected with ErrIllegalTransition.
func (s *OutboxService) Requeue(ctx context.Context, id uuid.UUID) (*OutboxEntryResponse, error) {
	if err := s.authz.Authorize(ctx, authz.PermOutboxManage); err != nil {
		return nil, err
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requeue(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Dead letter requeued",
		zap.Stringer("entry_id", id),
		zap.String("event_type", entry.EventType),
		zap.Stringer("tenant_id", entry.TenantID),
	)
	resp := newOutboxEntryResponse(entry)
	return &resp, nil
}

// RequeueAll requeues every dead entry and reports how many moved
func (s *OutboxService) RequeueAll(ctx context.Context) (int64, error) {
	if err := s.authz.Authorize(ctx, authz.PermOutboxManage); err != nil {
		return 0, err
	}

	var moved int64
	for {
		// requeued rows leave the dead set, so page 1 always holds what is left
		batch, _, err := s.repo.FindDead(ctx, 1, requeueBatch)
		if err != nil {
			return moved, fmt.Errorf("list dead letters: %w", err)
		}

		n := 0
		for _, entry := range batch {
			if err := s.requeue(ctx, entry); err != nil {
				s.logger.Warn("Dead letter not requeued", zap.Stringer("entry_id", entry.ID), zap.Error(err))
				continue
			}
			n++
		}
		moved += int64(n)
		if n == 0 || len(batch) < requeueBatch {
			break
		}
	}

	s.logger.Info("Dead letters requeued", zap.Int64("count", moved))
	return moved, nil
}

func (s *OutboxService) requeue(ctx context.Context, entry *shared.OutboxEntry) error {
	if err := entry.ResetForRetry(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return fmt.Errorf("save outbox entry %s: %w", entry.ID, err)
	}
	return nil
}

func (s *OutboxService) Stats(ctx context.Context) (*OutboxStatsResponse, error) {
	if err := s.authz.Authorize(ctx, authz.PermOutboxManage); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count outbox entries: %w", err)
	}

	stats := &OutboxStatsResponse{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}
