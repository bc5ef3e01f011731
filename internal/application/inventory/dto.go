package inventory

import (
	"time"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/google/uuid"
)

// StockLineResponse represents a stock line in API responses
type StockLineResponse struct {
	ID                 uuid.UUID  `json:"id"`
	WarehouseID        uuid.UUID  `json:"warehouse_id"`
	ProductID          uuid.UUID  `json:"product_id"`
	VariantID          *uuid.UUID `json:"variant_id,omitempty"`
	OnHand             int64      `json:"on_hand"`
	Reserved           int64      `json:"reserved"`
	Delivered          int64      `json:"delivered"`
	ConfirmedDelivered int64      `json:"confirmed_delivered"`
	ExpectedReturn     int64      `json:"expected_return"`
	Available          int64      `json:"available"`
	Version            int        `json:"version"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToStockLineResponse converts a domain StockLine to a response
func ToStockLineResponse(line *inventory.StockLine) StockLineResponse {
	return StockLineResponse{
		ID:                 line.ID,
		WarehouseID:        line.WarehouseID,
		ProductID:          line.ProductID,
		VariantID:          line.VariantID,
		OnHand:             line.OnHand,
		Reserved:           line.Reserved,
		Delivered:          line.Delivered,
		ConfirmedDelivered: line.ConfirmedDelivered,
		ExpectedReturn:     line.ExpectedReturn,
		Available:          line.Available(),
		Version:            line.Version,
		UpdatedAt:          line.UpdatedAt,
	}
}

// ToStockLineResponses converts a slice of stock lines
func ToStockLineResponses(lines []inventory.StockLine) []StockLineResponse {
	responses := make([]StockLineResponse, len(lines))
	for i := range lines {
		responses[i] = ToStockLineResponse(&lines[i])
	}
	return responses
}

// AvailabilityResponse is the result of an availability query
type AvailabilityResponse struct {
	WarehouseID uuid.UUID  `json:"warehouse_id"`
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	Available   int64      `json:"available"`
}

// RegisterStockLineRequest registers a stock line with an opening balance
type RegisterStockLineRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	OnHand    int64      `json:"on_hand" binding:"min=0"`
}

// StockListFilter represents pagination options for a warehouse stock listing
type StockListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}
