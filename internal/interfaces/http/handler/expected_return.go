package handler

import (
	"context"

	tradeapp "github.com/erp/fulfillment/internal/application/trade"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExpectedReturnService is the application surface of the expected-return register
type ExpectedReturnService interface {
	PendingReturnFinder
	Receive(ctx context.Context, tenantID, entryID uuid.UUID, req tradeapp.ReceiveReturnRequest) (*tradeapp.TransitionResult, error)
	ListPendingByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, page, pageSize int) (*shared.Paginated[tradeapp.ExpectedReturnResponse], error)
}

// ExpectedReturnListQuery represents pagination of the pending register
type ExpectedReturnListQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ExpectedReturnHandler handles expected-return HTTP requests
type ExpectedReturnHandler struct {
	BaseHandler
	returns ExpectedReturnService
}

// NewExpectedReturnHandler creates a new ExpectedReturnHandler
func NewExpectedReturnHandler(returns ExpectedReturnService) *ExpectedReturnHandler {
	return &ExpectedReturnHandler{returns: returns}
}

// Receive godoc
// @ID           receiveExpectedReturn
// @Summary      Receive an expected return at a warehouse
// @Description  Restocks every line at the receiving warehouse and marks the order returned
// @Tags         expected-returns
// @Accept       json
// @Produce      json
// @Param        entryId path string true "Expected return entry ID" format(uuid)
// @Param        Idempotency-Key header string false "Retry-safe request key"
// @Param        request body tradeapp.ReceiveReturnRequest true "Receiving warehouse"
// @Success      200 {object} dto.Response{data=tradeapp.TransitionResult}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /expected-returns/{entryId}/receive [post]
func (h *ExpectedReturnHandler) Receive(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}
	entryID, ok := h.ParseUUIDParam(c, "entryId")
	if !ok {
		return
	}

	var req tradeapp.ReceiveReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.returns.Receive(c.Request.Context(), tenant, entryID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListPendingByWarehouse godoc
// @ID           listWarehouseExpectedReturns
// @Summary      List pending expected returns dispatched from a warehouse
// @Tags         expected-returns
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]tradeapp.ExpectedReturnResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /warehouses/{id}/expected-returns [get]
func (h *ExpectedReturnHandler) ListPendingByWarehouse(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}
	warehouseID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var query ExpectedReturnListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.returns.ListPendingByWarehouse(c.Request.Context(), tenant, warehouseID, query.Page, query.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
