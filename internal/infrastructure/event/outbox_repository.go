package event

import (
	"context"
	"errors"
	"time"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var claimable = []shared.OutboxStatus{shared.OutboxStatusPending, shared.OutboxStatusFailed}

// GormOutboxRepository stores outbox entries in the outbox_events table
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// WithTx binds the repository to an open transaction
func (r *GormOutboxRepository) WithTx(tx *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: tx}
}

func (r *GormOutboxRepository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.OutboxEntryModel{})
}

func withStatus(status ...shared.OutboxStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(status) == 1 {
			return db.Where("status = ?", status[0])
		}
		return db.Where("status IN ?", status)
	}
}

func (r *GormOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]models.OutboxEntryModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, *models.OutboxEntryModelFromDomain(e))
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindPending returns up to limit never-attempted entries in commit order
func (r *GormOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.scan(r.table(ctx).
		Scopes(withStatus(shared.OutboxStatusPending)).
		Order("created_at").
		Limit(limit))
}

// FindRetryable returns failed entries whose backoff has elapsed by before
func (r *GormOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return r.scan(r.table(ctx).
		Scopes(withStatus(shared.OutboxStatusFailed)).
		Where("next_retry_at <= ?", before).
		Order("next_retry_at").
		Limit(limit))
}

// MarkProcessing moves the still-claimable entries among ids to PROCESSING.
// Rows another processor holds a lock on are skipped; SQLite has no row locks
// and serialises the transaction instead.
func (r *GormOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var claimed []*shared.OutboxEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := r.scan(tx.Model(&models.OutboxEntryModel{}).
			Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
			Scopes(withStatus(claimable...)).
			Where("id IN ?", ids))
		if err != nil || len(locked) == 0 {
			return err
		}

		now := time.Now()
		lockedIDs := make([]uuid.UUID, 0, len(locked))
		for _, e := range locked {
			lockedIDs = append(lockedIDs, e.ID)
			e.Status = shared.OutboxStatusProcessing
			e.UpdatedAt = now
		}
		if err := tx.Model(&models.OutboxEntryModel{}).
			Where("id IN ?", lockedIDs).
			Updates(map[string]any{"status": shared.OutboxStatusProcessing, "updated_at": now}).Error; err != nil {
			return err
		}
		claimed = locked
		return nil
	})
	return claimed, err
}

func (r *GormOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	entry.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(models.OutboxEntryModelFromDomain(entry)).Error
}

// ReleaseStale moves PROCESSING entries untouched since before to FAILED,
// due at once. A processor that died between claim and mark leaves them there.
// The retry count is kept, so a release does not spend the retry budget.
func (r *GormOutboxRepository) ReleaseStale(ctx context.Context, before time.Time) (int64, error) {
	now := time.Now()
	res := r.table(ctx).
		Scopes(withStatus(shared.OutboxStatusProcessing)).
		Where("updated_at < ?", before).
		Updates(map[string]any{
			"status":        shared.OutboxStatusFailed,
			"next_retry_at": now,
			"last_error":    "delivery interrupted",
			"updated_at":    now,
		})
	return res.RowsAffected, res.Error
}

// DeleteOlderThan purges SENT entries delivered before the cutoff
func (r *GormOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Scopes(withStatus(shared.OutboxStatusSent)).
		Where("processed_at < ?", before).
		Delete(&models.OutboxEntryModel{})
	return res.RowsAffected, res.Error
}

// FindDead pages through dead letters, most recently failed first
func (r *GormOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var total int64
	dead := r.table(ctx).Scopes(withStatus(shared.OutboxStatusDead))
	if err := dead.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*shared.OutboxEntry{}, 0, nil
	}

	filter := shared.Filter{Page: page, PageSize: pageSize}
	entries, err := r.scan(dead.Order("updated_at DESC").Offset(filter.Offset()).Limit(pageSize))
	return entries, total, err
}

func (r *GormOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	var row models.OutboxEntryModel
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, shared.NewNotFoundError("OutboxEntry", id.String())
	case err != nil:
		return nil, err
	}
	return row.ToDomain(), nil
}

// CountByStatus reports how many entries sit in each status
func (r *GormOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	var rows []struct {
		Status shared.OutboxStatus
		N      int64
	}
	if err := r.table(ctx).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[shared.OutboxStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

func (r *GormOutboxRepository) scan(q *gorm.DB) ([]*shared.OutboxEntry, error) {
	var rows []models.OutboxEntryModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]*shared.OutboxEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].ToDomain())
	}
	return entries, nil
}

var _ shared.OutboxRepository = (*GormOutboxRepository)(nil)
