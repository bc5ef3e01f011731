package handler

import (
	"context"

	tradeapp "github.com/erp/fulfillment/internal/application/trade"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderService is the application surface the order endpoints drive
type OrderService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req tradeapp.CreateOrderRequest) (*tradeapp.OrderResponse, error)
	GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter tradeapp.OrderListFilter) (*shared.Paginated[tradeapp.OrderListItemResponse], error)
	Transition(ctx context.Context, tenantID, orderID uuid.UUID, req tradeapp.TransitionRequest) (*tradeapp.TransitionResult, error)
	Delete(ctx context.Context, tenantID, orderID uuid.UUID) error
}

// PendingReturnFinder looks up the pending expected-return entry of an order
type PendingReturnFinder interface {
	FindPendingByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.ExpectedReturnResponse, error)
}

// OrderHandler handles sales order fulfillment HTTP requests
type OrderHandler struct {
	BaseHandler
	orders  OrderService
	returns PendingReturnFinder
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderService, returns PendingReturnFinder) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		returns: returns,
	}
}

// Create godoc
// @ID           createOrder
// @Summary      Create a sales order
// @Description  Create a new order in pending status with no QC decision
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateOrderRequest true "Order creation request"
// @Success      201 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}

	var req tradeapp.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orders.Create(c.Request.Context(), tenant, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID godoc
// @ID           getOrderById
// @Summary      Get sales order by ID
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}
	orderID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), tenant, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// List godoc
// @ID           listOrders
// @Summary      List sales orders
// @Tags         orders
// @Produce      json
// @Param        status query string false "Order status"
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field" default(created_at)
// @Param        order_dir query string false "Sort order" Enums(asc, desc) default(desc)
// @Success      200 {object} dto.Response{data=[]tradeapp.OrderListItemResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}

	var filter tradeapp.OrderListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	result, err := h.orders.List(c.Request.Context(), tenant, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Transition godoc
// @ID           transitionOrder
// @Summary      Fire a trigger on a sales order
// @Description  Applies confirm, approveQC, rejectQC, dispatch, deliver, confirmDelivered,
// @Description  markExpectedReturn, receiveReturn or cancel. The stock movement and the
// @Description  status change commit together or not at all.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        Idempotency-Key header string false "Retry-safe request key"
// @Param        request body tradeapp.TransitionRequest true "Trigger"
// @Success      200 {object} dto.Response{data=tradeapp.TransitionResult}
// @Failure      400 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/transition [post]
func (h *OrderHandler) Transition(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}
	orderID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req tradeapp.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.orders.Transition(c.Request.Context(), tenant, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete godoc
// @ID           deleteOrder
// @Summary      Delete a sales order
// @Description  Fires the delete trigger. Allowed while the order is pending or confirmed.
// @Tags         orders
// @Param        id path string true "Order ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}
	orderID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.orders.Delete(c.Request.Context(), tenant, orderID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetExpectedReturn godoc
// @ID           getOrderExpectedReturn
// @Summary      Get the pending expected return of an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.ExpectedReturnResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/expected-return [get]
func (h *OrderHandler) GetExpectedReturn(c *gin.Context) {
	tenant, ok := h.RequireTenant(c)
	if !ok {
		return
	}
	orderID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	entry, err := h.returns.FindPendingByOrder(c.Request.Context(), tenant, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}
