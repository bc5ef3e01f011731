package router

import (
	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/interfaces/http/handler"
	"github.com/erp/fulfillment/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the HTTP handlers of the fulfillment API
type Handlers struct {
	Orders          *handler.OrderHandler
	Stock           *handler.StockHandler
	ExpectedReturns *handler.ExpectedReturnHandler
	Outbox          *handler.OutboxHandler
	System          *handler.SystemHandler
}

// FulfillmentGroups builds the /api/v1 route groups. idempotency guards the
// state-changing POST routes; pass nil to disable it.
func FulfillmentGroups(h Handlers, idempotency gin.HandlerFunc) []RouteRegistrar {
	retrySafe := func(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
		if idempotency == nil {
			return handlers
		}
		return append([]gin.HandlerFunc{idempotency}, handlers...)
	}
	perm := middleware.RequirePermission

	orders := NewDomainGroup("orders", "/orders")
	orders.POST("", retrySafe(perm(authz.PermOrderCreate), h.Orders.Create)...)
	orders.GET("", perm(authz.PermOrderRead), h.Orders.List)
	orders.GET("/:id", perm(authz.PermOrderRead), h.Orders.GetByID)
	orders.DELETE("/:id", perm(authz.PermOrderDelete), h.Orders.Delete)
	// each trigger is authorized against its own permission by the service
	orders.POST("/:id/transition", retrySafe(h.Orders.Transition)...)
	orders.GET("/:id/expected-return", perm(authz.PermExpectedReturnRead), h.Orders.GetExpectedReturn)

	warehouses := NewDomainGroup("warehouses", "/warehouses")
	warehouses.GET("/:id/stock", perm(authz.PermInventoryRead), h.Stock.ListByWarehouse)
	warehouses.POST("/:id/stock", retrySafe(perm(authz.PermInventoryManage), h.Stock.Register)...)
	warehouses.GET("/:id/stock/:productId", perm(authz.PermInventoryRead), h.Stock.GetStock)
	warehouses.GET("/:id/stock/:productId/:variantId", perm(authz.PermInventoryRead), h.Stock.GetStock)
	warehouses.GET("/:id/availability/:productId", perm(authz.PermInventoryRead), h.Stock.GetAvailable)
	warehouses.GET("/:id/expected-returns", perm(authz.PermExpectedReturnRead), h.ExpectedReturns.ListPendingByWarehouse)

	returns := NewDomainGroup("expected-returns", "/expected-returns")
	returns.POST("/:entryId/receive", retrySafe(perm(authz.PermExpectedReturnReceive), h.ExpectedReturns.Receive)...)

	outbox := NewDomainGroup("outbox", "/admin/outbox").Use(perm(authz.PermOutboxManage))
	outbox.GET("/dead", h.Outbox.ListDeadLetters)
	outbox.POST("/dead/retry-all", h.Outbox.RequeueAll)
	outbox.GET("/stats", h.Outbox.Stats)
	outbox.GET("/:id", h.Outbox.GetEntry)
	outbox.POST("/:id/retry", h.Outbox.Requeue)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	return []RouteRegistrar{orders, warehouses, returns, outbox, system}
}

// RegisterHealthRoutes mounts the unauthenticated health endpoints on the engine root
func RegisterHealthRoutes(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)
}
