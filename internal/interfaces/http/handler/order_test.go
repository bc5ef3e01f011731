package handler

import (
	"net/http"
	"testing"

	invapp "github.com/erp/fulfillment/internal/application/inventory"
	tradeapp "github.com/erp/fulfillment/internal/application/trade"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOrderRouter(orders *mockOrderService, returns *mockExpectedReturnService) *gin.Engine {
	h := NewOrderHandler(orders, returns)
	r := testEngine()
	r.POST("/orders", h.Create)
	r.GET("/orders", h.List)
	r.GET("/orders/:id", h.GetByID)
	r.DELETE("/orders/:id", h.Delete)
	r.POST("/orders/:id/transition", h.Transition)
	r.GET("/orders/:id/expected-return", h.GetExpectedReturn)
	return r
}

func TestOrderHandler_Create(t *testing.T) {
	orders := new(mockOrderService)
	r := newOrderRouter(orders, new(mockExpectedReturnService))

	warehouseID := uuid.New()
	productID := uuid.New()
	created := &tradeapp.OrderResponse{ID: uuid.New(), OrderNumber: "SO-1", Status: "pending", QCStatus: "none"}

	orders.On("Create", mock.Anything, testTenantID, mock.MatchedBy(func(req tradeapp.CreateOrderRequest) bool {
		return req.WarehouseID == warehouseID && len(req.Lines) == 1 && req.Lines[0].Quantity == 3
	})).Return(created, nil)

	w := doRequest(r, http.MethodPost, "/orders", map[string]any{
		"customer_name": "Acme",
		"warehouse_id":  warehouseID,
		"lines": []map[string]any{
			{"product_id": productID, "quantity": 3, "unit_price": "10.00"},
		},
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "pending", data["status"])
	orders.AssertExpectations(t)
}

func TestOrderHandler_Create_Validation(t *testing.T) {
	orders := new(mockOrderService)
	r := newOrderRouter(orders, new(mockExpectedReturnService))

	w := doRequest(r, http.MethodPost, "/orders", map[string]any{
		"customer_name": "Acme",
		"warehouse_id":  uuid.New(),
		"lines": []map[string]any{
			{"product_id": uuid.New(), "quantity": 0},
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderHandler_GetByID(t *testing.T) {
	orders := new(mockOrderService)
	r := newOrderRouter(orders, new(mockExpectedReturnService))

	orderID := uuid.New()
	orders.On("GetByID", mock.Anything, testTenantID, orderID).
		Return(&tradeapp.OrderResponse{ID: orderID, Status: "confirmed"}, nil)

	w := doRequest(r, http.MethodGet, "/orders/"+orderID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	orders.AssertExpectations(t)
}

func TestOrderHandler_GetByID_NotFound(t *testing.T) {
	orders := new(mockOrderService)
	r := newOrderRouter(orders, new(mockExpectedReturnService))

	orderID := uuid.New()
	orders.On("GetByID", mock.Anything, testTenantID, orderID).
		Return(nil, shared.NewNotFoundError("SalesOrder", orderID.String()))

	w := doRequest(r, http.MethodGet, "/orders/"+orderID.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestOrderHandler_List(t *testing.T) {
	orders := new(mockOrderService)
	r := newOrderRouter(orders, new(mockExpectedReturnService))

	page := shared.NewPaginated([]tradeapp.OrderListItemResponse{{ID: uuid.New(), Status: "dispatched"}}, 41, 2, 20)
	orders.On("List", mock.Anything, testTenantID, mock.MatchedBy(func(f tradeapp.OrderListFilter) bool {
		return f.Status == "dispatched" && f.Page == 2
	})).Return(&page, nil)

	w := doRequest(r, http.MethodGet, "/orders?status=dispatched&page=2", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestOrderHandler_List_RejectsUnknownStatus(t *testing.T) {
	orders := new(mockOrderService)
	r := newOrderRouter(orders, new(mockExpectedReturnService))

	w := doRequest(r, http.MethodGet, "/orders?status=shipped", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Transition(t *testing.T) {
	orderID := uuid.New()

	t.Run("dispatch returns order and stock", func(t *testing.T) {
		orders := new(mockOrderService)
		r := newOrderRouter(orders, new(mockExpectedReturnService))

		result := &tradeapp.TransitionResult{
			Order: &tradeapp.OrderResponse{ID: orderID, Status: "dispatched"},
			Stock: []invapp.StockLineResponse{{OnHand: 7, Reserved: 0, Delivered: 3}},
		}
		orders.On("Transition", mock.Anything, testTenantID, orderID, tradeapp.TransitionRequest{Trigger: "dispatch"}).
			Return(result, nil)

		w := doRequest(r, http.MethodPost, "/orders/"+orderID.String()+"/transition", map[string]string{"trigger": "dispatch"})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "dispatched", data["order"].(map[string]any)["status"])
		assert.Len(t, data["stock"], 1)
	})

	t.Run("receiveReturn carries warehouse", func(t *testing.T) {
		orders := new(mockOrderService)
		r := newOrderRouter(orders, new(mockExpectedReturnService))

		warehouseID := uuid.New()
		orders.On("Transition", mock.Anything, testTenantID, orderID, mock.MatchedBy(func(req tradeapp.TransitionRequest) bool {
			return req.Trigger == "receiveReturn" && req.WarehouseID != nil && *req.WarehouseID == warehouseID
		})).Return(&tradeapp.TransitionResult{}, nil)

		w := doRequest(r, http.MethodPost, "/orders/"+orderID.String()+"/transition", map[string]any{
			"trigger":      "receiveReturn",
			"warehouse_id": warehouseID,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		orders.AssertExpectations(t)
	})

	t.Run("unknown trigger", func(t *testing.T) {
		orders := new(mockOrderService)
		r := newOrderRouter(orders, new(mockExpectedReturnService))

		w := doRequest(r, http.MethodPost, "/orders/"+orderID.String()+"/transition", map[string]string{"trigger": "teleport"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.Len(t, resp.Error.Fields, 1)
		assert.Equal(t, "trigger", resp.Error.Fields[0].Field)
		orders.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("illegal transition maps to 409", func(t *testing.T) {
		orders := new(mockOrderService)
		r := newOrderRouter(orders, new(mockExpectedReturnService))

		orders.On("Transition", mock.Anything, testTenantID, orderID, mock.Anything).
			Return(nil, shared.ErrIllegalTransition)

		w := doRequest(r, http.MethodPost, "/orders/"+orderID.String()+"/transition", map[string]string{"trigger": "deliver"})

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeIllegalTransition, resp.Error.Code)
	})

	t.Run("insufficient stock maps to 409", func(t *testing.T) {
		orders := new(mockOrderService)
		r := newOrderRouter(orders, new(mockExpectedReturnService))

		orders.On("Transition", mock.Anything, testTenantID, orderID, mock.Anything).
			Return(nil, shared.ErrInsufficientStock)

		w := doRequest(r, http.MethodPost, "/orders/"+orderID.String()+"/transition", map[string]string{"trigger": "confirm"})

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInsufficientStock, resp.Error.Code)
	})

	t.Run("forbidden maps to 403", func(t *testing.T) {
		orders := new(mockOrderService)
		r := newOrderRouter(orders, new(mockExpectedReturnService))

		orders.On("Transition", mock.Anything, testTenantID, orderID, mock.Anything).
			Return(nil, shared.NewForbiddenError("order:approve_qc"))

		w := doRequest(r, http.MethodPost, "/orders/"+orderID.String()+"/transition", map[string]string{"trigger": "approveQC"})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestOrderHandler_Delete(t *testing.T) {
	orders := new(mockOrderService)
	r := newOrderRouter(orders, new(mockExpectedReturnService))

	orderID := uuid.New()
	orders.On("Delete", mock.Anything, testTenantID, orderID).Return(nil)

	w := doRequest(r, http.MethodDelete, "/orders/"+orderID.String(), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	orders.AssertExpectations(t)
}

func TestOrderHandler_GetExpectedReturn(t *testing.T) {
	returns := new(mockExpectedReturnService)
	r := newOrderRouter(new(mockOrderService), returns)

	orderID := uuid.New()
	returns.On("FindPendingByOrder", mock.Anything, testTenantID, orderID).
		Return(&tradeapp.ExpectedReturnResponse{OrderID: orderID, Status: "pending", TotalQuantity: 4}, nil)

	w := doRequest(r, http.MethodGet, "/orders/"+orderID.String()+"/expected-return", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.EqualValues(t, 4, data["total_quantity"])
}

func TestOrderHandler_InvalidOrderID(t *testing.T) {
	orders := new(mockOrderService)
	r := newOrderRouter(orders, new(mockExpectedReturnService))

	w := doRequest(r, http.MethodGet, "/orders/nope", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
