package inventory

import (
	"fmt"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
)

// StockKey identifies a StockLine. Lines are keyed strictly by warehouse,
// product and optional variant; there is no fallback matching of any kind.
type StockKey struct {
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
}

// NewStockKey creates a stock key. A nil or zero variant means "no variant".
func NewStockKey(warehouseID, productID uuid.UUID, variantID *uuid.UUID) StockKey {
	if variantID != nil && *variantID == uuid.Nil {
		variantID = nil
	}
	return StockKey{
		WarehouseID: warehouseID,
		ProductID:   productID,
		VariantID:   variantID,
	}
}

// Validate checks that the key names a warehouse and a product
func (k StockKey) Validate() error {
	if k.WarehouseID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Warehouse ID cannot be empty")
	}
	if k.ProductID == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Product ID cannot be empty")
	}
	return nil
}

// HasVariant reports whether the key targets a specific variant
func (k StockKey) HasVariant() bool {
	return k.VariantID != nil
}

// VariantOrNil returns the variant ID, or uuid.Nil for variant-less lines.
// Storage uses uuid.Nil so that the composite key stays unique.
func (k StockKey) VariantOrNil() uuid.UUID {
	if !k.HasVariant() {
		return uuid.Nil
	}
	return *k.VariantID
}

// WithWarehouse returns the same product/variant key at another warehouse
func (k StockKey) WithWarehouse(warehouseID uuid.UUID) StockKey {
	k.WarehouseID = warehouseID
	return k
}

// Equal reports whether two keys address the same line
func (k StockKey) Equal(other StockKey) bool {
	return k.WarehouseID == other.WarehouseID &&
		k.ProductID == other.ProductID &&
		k.VariantOrNil() == other.VariantOrNil()
}

func (k StockKey) String() string {
	if !k.HasVariant() {
		return fmt.Sprintf("%s/%s", k.WarehouseID, k.ProductID)
	}
	return fmt.Sprintf("%s/%s/%s", k.WarehouseID, k.ProductID, *k.VariantID)
}
