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

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// FindByID finds a sales order by ID within a tenant
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("SalesOrder", id.String())
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists orders of a tenant. Lines are not loaded.
func (r *GormSalesOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.SalesOrder, int64, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SalesOrderModel{}).Where("tenant_id = ?", tenantID),
		filter,
	).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SalesOrderModel
	if err := listPage(query, filter, salesOrderSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]trade.SalesOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// ExistsByOrderNumber checks if an order number exists for a tenant
func (r *GormSalesOrderRepository) ExistsByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SalesOrderModel{}).
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the order and its lines
func (r *GormSalesOrderRepository) Create(ctx context.Context, order *trade.SalesOrder) error {
	return r.db.WithContext(ctx).Create(models.SalesOrderModelFromDomain(order)).Error
}

// SaveWithLock persists the order header guarded by the loaded version.
// Lines are fixed once the order exists and are not rewritten.
func (r *GormSalesOrderRepository) SaveWithLock(ctx context.Context, order *trade.SalesOrder) error {
	loadedVersion := order.Version
	now := time.Now()

	result := r.db.WithContext(ctx).Model(&models.SalesOrderModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", order.TenantID, order.ID, loadedVersion).
		Updates(map[string]any{
			"delivery_address":       order.DeliveryAddress,
			"status":                 order.Status,
			"qc_status":              order.QCStatus,
			"remark":                 order.Remark,
			"qc_reviewed_at":         order.QCReviewedAt,
			"confirmed_at":           order.ConfirmedAt,
			"dispatched_at":          order.DispatchedAt,
			"delivered_at":           order.DeliveredAt,
			"confirmed_delivered_at": order.ConfirmedDeliveredAt,
			"expected_return_at":     order.ExpectedReturnAt,
			"returned_at":            order.ReturnedAt,
			"cancelled_at":           order.CancelledAt,
			"cancel_reason":          order.CancelReason,
			"version":                loadedVersion + 1,
			"updated_at":             now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.lockFailure(ctx, order.TenantID, order.ID)
	}

	order.Version = loadedVersion + 1
	order.UpdatedAt = now
	return nil
}

// Delete removes the order and its lines if nobody changed it since it was loaded
func (r *GormSalesOrderRepository) Delete(ctx context.Context, order *trade.SalesOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ? AND id = ? AND version = ?", order.TenantID, order.ID, order.Version).
			Delete(&models.SalesOrderModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return NewGormSalesOrderRepository(tx).lockFailure(ctx, order.TenantID, order.ID)
		}
		return tx.Where("order_id = ?", order.ID).Delete(&models.SalesOrderLineModel{}).Error
	})
}

// lockFailure tells a missing order apart from a stale version
func (r *GormSalesOrderRepository) lockFailure(ctx context.Context, tenantID, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SalesOrderModel{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.NewNotFoundError("SalesOrder", id.String())
	}
	return shared.ErrConcurrencyConflict
}

// applyFilter applies the supported filters without pagination
func (r *GormSalesOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		case "qc_status":
			query = query.Where("qc_status = ?", value)
		}
	}
	return query
}

// Ensure GormSalesOrderRepository implements SalesOrderRepository
var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
