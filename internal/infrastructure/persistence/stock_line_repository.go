package persistence

import (
	"context"
	"errors"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// expectedReturnProjection sums the pending expected-return lines that
// originate from a stock line's warehouse for its exact product and variant.
const expectedReturnProjection = `(SELECT COALESCE(SUM(erl.quantity), 0)
	FROM expected_return_lines erl
	JOIN expected_return_entries ere ON ere.id = erl.entry_id
	WHERE ere.status = 'pending'
	AND ere.tenant_id = stock_lines.tenant_id
	AND ere.warehouse_id = stock_lines.warehouse_id
	AND erl.product_id = stock_lines.product_id
	AND erl.variant_id = stock_lines.variant_id) AS expected_return`

// GormStockLineRepository implements StockLineRepository using GORM
type GormStockLineRepository struct {
	db *gorm.DB
}

// NewGormStockLineRepository creates a new GormStockLineRepository
func NewGormStockLineRepository(db *gorm.DB) *GormStockLineRepository {
	return &GormStockLineRepository{db: db}
}

// FindByKey finds the line with exactly this key. A line without a variant
// never matches a request for a variant and vice versa.
func (r *GormStockLineRepository) FindByKey(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (*inventory.StockLine, error) {
	var model models.StockLineModel
	err := r.withProjection(ctx).
		Scopes(stockKeyScope(tenantID, key)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("StockLine", key.String())
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByWarehouse lists a warehouse's lines with pagination
func (r *GormStockLineRepository) FindByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter shared.Filter) ([]inventory.StockLine, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.StockLineModel{}).
		Where("tenant_id = ? AND warehouse_id = ?", tenantID, warehouseID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockLineModel
	query := r.withProjection(ctx).
		Where("stock_lines.tenant_id = ? AND stock_lines.warehouse_id = ?", tenantID, warehouseID)
	if err := listPage(query, filter, stockLineSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	lines := make([]inventory.StockLine, len(rows))
	for i := range rows {
		lines[i] = *rows[i].ToDomain()
	}
	return lines, total, nil
}

// Create registers a new line
func (r *GormStockLineRepository) Create(ctx context.Context, line *inventory.StockLine) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StockLineModel{}).
		Scopes(stockKeyScope(line.TenantID, line.Key())).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Stock line already registered for "+line.Key().String())
	}
	return r.db.WithContext(ctx).Create(models.StockLineModelFromDomain(line)).Error
}

func (r *GormStockLineRepository) withProjection(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.StockLineModel{}).
		Select("stock_lines.*, " + expectedReturnProjection)
}

// stockKeyScope matches the exact (warehouse, product, variant) identity
func stockKeyScope(tenantID uuid.UUID, key inventory.StockKey) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"stock_lines.tenant_id = ? AND stock_lines.warehouse_id = ? AND stock_lines.product_id = ? AND stock_lines.variant_id = ?",
			tenantID, key.WarehouseID, key.ProductID, key.VariantOrNil(),
		)
	}
}

// Ensure GormStockLineRepository implements StockLineRepository
var _ inventory.StockLineRepository = (*GormStockLineRepository)(nil)
