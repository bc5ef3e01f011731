package handler

import (
	"context"

	invapp "github.com/erp/fulfillment/internal/application/inventory"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockService is the application surface the stock endpoints drive
type StockService interface {
	GetStock(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (*invapp.StockLineResponse, error)
	GetAvailable(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (*invapp.AvailabilityResponse, error)
	ListByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter invapp.StockListFilter) (*shared.Paginated[invapp.StockLineResponse], error)
	Register(ctx context.Context, tenantID, warehouseID uuid.UUID, req invapp.RegisterStockLineRequest) (*invapp.StockLineResponse, error)
}

// StockHandler handles warehouse stock HTTP requests
type StockHandler struct {
	BaseHandler
	stock StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// stockKey reads warehouse, product and the optional variant from the path
func (h *StockHandler) stockKey(c *gin.Context) (inventory.StockKey, bool) {
	warehouseID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return inventory.StockKey{}, false
	}
	productID, ok := h.ParseUUIDParam(c, "productId")
	if !ok {
		return inventory.StockKey{}, false
	}

	var variantID *uuid.UUID
	if c.Param("variantId") != "" {
		v, ok := h.ParseUUIDParam(c, "variantId")
		if !ok {
			return inventory.StockKey{}, false
		}
		variantID = &v
	}
	return inventory.NewStockKey(warehouseID, productID, variantID), true
}

// GetStock godoc
// @ID           getStockLine
// @Summary      Get the counters of one stock line
// @Tags         stock
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Param        productId path string true "Product ID" format(uuid)
// @Param        variantId path string false "Variant ID" format(uuid)
// @Success      200 {object} dto.Response{data=invapp.StockLineResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /warehouses/{id}/stock/{productId}/{variantId} [get]
func (h *StockHandler) GetStock(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}
	key, ok := h.stockKey(c)
	if !ok {
		return
	}

	line, err := h.stock.GetStock(c.Request.Context(), tenant, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, line)
}

// GetAvailable godoc
// @ID           getStockAvailability
// @Summary      Get the units that can still be reserved
// @Tags         stock
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Param        productId path string true "Product ID" format(uuid)
// @Param        variant_id query string false "Variant ID" format(uuid)
// @Success      200 {object} dto.Response{data=invapp.AvailabilityResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /warehouses/{id}/availability/{productId} [get]
func (h *StockHandler) GetAvailable(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}
	key, ok := h.stockKey(c)
	if !ok {
		return
	}
	if raw := c.Query("variant_id"); raw != "" {
		v, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid variant_id")
			return
		}
		key = inventory.NewStockKey(key.WarehouseID, key.ProductID, &v)
	}

	availability, err := h.stock.GetAvailable(c.Request.Context(), tenant, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, availability)
}

// ListByWarehouse godoc
// @ID           listWarehouseStock
// @Summary      List the stock lines of a warehouse
// @Tags         stock
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]invapp.StockLineResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /warehouses/{id}/stock [get]
func (h *StockHandler) ListByWarehouse(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}
	warehouseID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var filter invapp.StockListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	result, err := h.stock.ListByWarehouse(c.Request.Context(), tenant, warehouseID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Register godoc
// @ID           registerStockLine
// @Summary      Register a stock line with an opening balance
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Param        request body invapp.RegisterStockLineRequest true "Stock line"
// @Success      201 {object} dto.Response{data=invapp.StockLineResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /warehouses/{id}/stock [post]
func (h *StockHandler) Register(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}
	warehouseID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req invapp.RegisterStockLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	line, err := h.stock.Register(c.Request.Context(), tenant, warehouseID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, line)
}
