package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/domain/trade"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExpectedReturnRepository implements ExpectedReturnRepository using GORM
type GormExpectedReturnRepository struct {
	db *gorm.DB
}

// NewGormExpectedReturnRepository creates a new GormExpectedReturnRepository
func NewGormExpectedReturnRepository(db *gorm.DB) *GormExpectedReturnRepository {
	return &GormExpectedReturnRepository{db: db}
}

// FindByID finds an entry by ID within a tenant
func (r *GormExpectedReturnRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.ExpectedReturnEntry, error) {
	return r.findOne(ctx, "ExpectedReturnEntry", id.String(),
		"tenant_id = ? AND id = ?", tenantID, id)
}

// FindPendingByOrder finds the pending entry of an order
func (r *GormExpectedReturnRepository) FindPendingByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*trade.ExpectedReturnEntry, error) {
	return r.findOne(ctx, "ExpectedReturnEntry", "order "+orderID.String(),
		"tenant_id = ? AND order_id = ? AND status = ?", tenantID, orderID, trade.ReturnStatusPending)
}

// FindPendingByWarehouse lists pending entries whose origin is the warehouse
func (r *GormExpectedReturnRepository) FindPendingByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter shared.Filter) ([]trade.ExpectedReturnEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExpectedReturnEntryModel{}).
		Where("tenant_id = ? AND warehouse_id = ? AND status = ?", tenantID, warehouseID, trade.ReturnStatusPending).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ExpectedReturnEntryModel
	if err := listPage(query.Preload("Lines"), filter, expectedReturnSort).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]trade.ExpectedReturnEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, total, nil
}

// Create inserts an entry with its lines; an order has at most one entry
func (r *GormExpectedReturnRepository) Create(ctx context.Context, entry *trade.ExpectedReturnEntry) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ExpectedReturnEntryModel{}).
		Where("tenant_id = ? AND order_id = ?", entry.TenantID, entry.OrderID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Order "+entry.OrderNumber+" already has an expected return")
	}
	return r.db.WithContext(ctx).Create(models.ExpectedReturnEntryModelFromDomain(entry)).Error
}

// SaveWithLock persists the entry status guarded by the loaded version
func (r *GormExpectedReturnRepository) SaveWithLock(ctx context.Context, entry *trade.ExpectedReturnEntry) error {
	loadedVersion := entry.Version
	now := time.Now()

	result := r.db.WithContext(ctx).Model(&models.ExpectedReturnEntryModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", entry.TenantID, entry.ID, loadedVersion).
		Updates(map[string]any{
			"status":                entry.Status,
			"received_warehouse_id": entry.ReceivedWarehouseID,
			"received_at":           entry.ReceivedAt,
			"version":               loadedVersion + 1,
			"updated_at":            now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, entry.TenantID, entry.ID); err != nil {
			return err
		}
		return shared.ErrConcurrencyConflict
	}

	entry.Version = loadedVersion + 1
	entry.UpdatedAt = now
	return nil
}

func (r *GormExpectedReturnRepository) findOne(ctx context.Context, resource, id string, where string, args ...any) (*trade.ExpectedReturnEntry, error) {
	var model models.ExpectedReturnEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where(where, args...).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(resource, id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormExpectedReturnRepository implements ExpectedReturnRepository
var _ trade.ExpectedReturnRepository = (*GormExpectedReturnRepository)(nil)
