package trade

import (
	"time"

	appinv "github.com/erp/fulfillment/internal/application/inventory"
	"github.com/erp/fulfillment/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents a request to create a sales order
type CreateOrderRequest struct {
	OrderNumber     string                   `json:"order_number" binding:"omitempty,max=50"`
	CustomerName    string                   `json:"customer_name" binding:"required,min=1,max=200"`
	DeliveryAddress string                   `json:"delivery_address" binding:"max=500"`
	WarehouseID     uuid.UUID                `json:"warehouse_id" binding:"required"`
	OrderDate       *time.Time               `json:"order_date"`
	Remark          string                   `json:"remark" binding:"max=500"`
	Lines           []CreateOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CreateOrderLineRequest represents one line of a new order
type CreateOrderLineRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	VariantID *uuid.UUID      `json:"variant_id"`
	Quantity  int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// TransitionRequest requests a trigger on an order
type TransitionRequest struct {
	Trigger string `json:"trigger" binding:"required,trigger"`
	// WarehouseID is the receiving warehouse for receiveReturn; defaults to the dispatch warehouse
	WarehouseID *uuid.UUID `json:"warehouse_id"`
	Reason      string     `json:"reason" binding:"max=500"`
}

// ReceiveReturnRequest receives an expected return at a warehouse
type ReceiveReturnRequest struct {
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Status      string     `form:"status" binding:"omitempty,oneof=pending confirmed dispatched delivered confirmed_delivered expected_return returned cancelled"`
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by" binding:"omitempty,oneof=created_at order_date order_number status"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderLineResponse represents an order line in API responses
type OrderLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	LineNo    int             `json:"line_no"`
	ProductID uuid.UUID       `json:"product_id"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// OrderResponse represents a sales order in API responses
type OrderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	OrderNumber          string              `json:"order_number"`
	CustomerName         string              `json:"customer_name"`
	DeliveryAddress      string              `json:"delivery_address,omitempty"`
	WarehouseID          uuid.UUID           `json:"warehouse_id"`
	Status               string              `json:"status"`
	QCStatus             string              `json:"qc_status"`
	TotalAmount          decimal.Decimal     `json:"total_amount"`
	Remark               string              `json:"remark,omitempty"`
	Lines                []OrderLineResponse `json:"lines"`
	AvailableTriggers    []string            `json:"available_triggers"`
	OrderDate            time.Time           `json:"order_date"`
	QCReviewedAt         *time.Time          `json:"qc_reviewed_at,omitempty"`
	ConfirmedAt          *time.Time          `json:"confirmed_at,omitempty"`
	DispatchedAt         *time.Time          `json:"dispatched_at,omitempty"`
	DeliveredAt          *time.Time          `json:"delivered_at,omitempty"`
	ConfirmedDeliveredAt *time.Time          `json:"confirmed_delivered_at,omitempty"`
	ExpectedReturnAt     *time.Time          `json:"expected_return_at,omitempty"`
	ReturnedAt           *time.Time          `json:"returned_at,omitempty"`
	CancelledAt          *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason         string              `json:"cancel_reason,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	Version              int                 `json:"version"`
}

// OrderListItemResponse represents an order in list responses
type OrderListItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	OrderNumber  string          `json:"order_number"`
	CustomerName string          `json:"customer_name"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	Status       string          `json:"status"`
	QCStatus     string          `json:"qc_status"`
	LineCount    int             `json:"line_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	OrderDate    time.Time       `json:"order_date"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ExpectedReturnLineResponse represents a line awaiting return
type ExpectedReturnLineResponse struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int64      `json:"quantity"`
}

// ExpectedReturnResponse represents an expected-return entry in API responses
type ExpectedReturnResponse struct {
	ID                  uuid.UUID                    `json:"id"`
	OrderID             uuid.UUID                    `json:"order_id"`
	OrderNumber         string                       `json:"order_number"`
	WarehouseID         uuid.UUID                    `json:"warehouse_id"`
	Status              string                       `json:"status"`
	Lines               []ExpectedReturnLineResponse `json:"lines"`
	TotalQuantity       int64                        `json:"total_quantity"`
	ReceivedWarehouseID *uuid.UUID                   `json:"received_warehouse_id,omitempty"`
	ReceivedAt          *time.Time                   `json:"received_at,omitempty"`
	CreatedAt           time.Time                    `json:"created_at"`
	Version             int                          `json:"version"`
}

// TransitionResult is the outcome of a committed transition
type TransitionResult struct {
	Order          *OrderResponse             `json:"order,omitempty"`
	Stock          []appinv.StockLineResponse `json:"stock,omitempty"`
	ExpectedReturn *ExpectedReturnResponse    `json:"expected_return,omitempty"`
	Deleted        bool                       `json:"deleted,omitempty"`
}

// ToOrderResponse converts a domain SalesOrder to a response
func ToOrderResponse(o *trade.SalesOrder) OrderResponse {
	lines := make([]OrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineResponse{
			ID:        l.ID,
			LineNo:    l.LineNo,
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Amount:    l.Amount(),
		}
	}
	triggers := o.AvailableTriggers()
	names := make([]string, len(triggers))
	for i, t := range triggers {
		names[i] = t.String()
	}

	return OrderResponse{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		CustomerName:         o.CustomerName,
		DeliveryAddress:      o.DeliveryAddress,
		WarehouseID:          o.WarehouseID,
		Status:               o.Status.String(),
		QCStatus:             o.QCStatus.String(),
		TotalAmount:          o.TotalAmount,
		Remark:               o.Remark,
		Lines:                lines,
		AvailableTriggers:    names,
		OrderDate:            o.OrderDate,
		QCReviewedAt:         o.QCReviewedAt,
		ConfirmedAt:          o.ConfirmedAt,
		DispatchedAt:         o.DispatchedAt,
		DeliveredAt:          o.DeliveredAt,
		ConfirmedDeliveredAt: o.ConfirmedDeliveredAt,
		ExpectedReturnAt:     o.ExpectedReturnAt,
		ReturnedAt:           o.ReturnedAt,
		CancelledAt:          o.CancelledAt,
		CancelReason:         o.CancelReason,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		Version:              o.Version,
	}
}

// ToOrderListItemResponse converts a domain SalesOrder to a list item
func ToOrderListItemResponse(o *trade.SalesOrder) OrderListItemResponse {
	return OrderListItemResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerName,
		WarehouseID:  o.WarehouseID,
		Status:       o.Status.String(),
		QCStatus:     o.QCStatus.String(),
		LineCount:    len(o.Lines),
		TotalAmount:  o.TotalAmount,
		OrderDate:    o.OrderDate,
		UpdatedAt:    o.UpdatedAt,
	}
}

// ToExpectedReturnResponse converts a domain ExpectedReturnEntry to a response
func ToExpectedReturnResponse(e *trade.ExpectedReturnEntry) ExpectedReturnResponse {
	lines := make([]ExpectedReturnLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = ExpectedReturnLineResponse{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
		}
	}
	return ExpectedReturnResponse{
		ID:                  e.ID,
		OrderID:             e.OrderID,
		OrderNumber:         e.OrderNumber,
		WarehouseID:         e.WarehouseID,
		Status:              e.Status.String(),
		Lines:               lines,
		TotalQuantity:       e.TotalQuantity(),
		ReceivedWarehouseID: e.ReceivedWarehouseID,
		ReceivedAt:          e.ReceivedAt,
		CreatedAt:           e.CreatedAt,
		Version:             e.Version,
	}
}
