package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/erp/fulfillment/internal/application/authz"
	eventapp "github.com/erp/fulfillment/internal/application/event"
	invapp "github.com/erp/fulfillment/internal/application/inventory"
	tradeapp "github.com/erp/fulfillment/internal/application/trade"
	"github.com/erp/fulfillment/internal/infrastructure/auth"
	"github.com/erp/fulfillment/internal/infrastructure/cache"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/erp/fulfillment/internal/interfaces/http/handler"
	"github.com/erp/fulfillment/internal/interfaces/http/middleware"
	"github.com/erp/fulfillment/internal/interfaces/http/router"
	"github.com/erp/fulfillment/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiServer struct {
	*FulfillmentSetup
	testutil.APIClient
	issuer      *auth.JWTService
	revocations auth.RevocationList
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := NewSharedFulfillmentSetup(t)
	_ = middleware.SetupValidator()

	issuer := auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-secret-at-least-32-bytes!",
		Issuer:                "fulfillment-test",
		AccessTokenExpiration: time.Hour,
	})
	revocations := auth.NewMemoryRevocationList()

	engine := gin.New()
	engine.Use(middleware.RequestID())

	system := handler.NewSystemHandler("fulfillment", "test", handler.PingerFunc(func(ctx context.Context) error {
		return s.DB.SqlDB.PingContext(ctx)
	}), nil)
	router.RegisterHealthRoutes(engine, system)

	r := router.NewRouter(engine, router.WithMiddleware(middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		Validator:   issuer,
		Revocations: revocations,
		Logger:      s.Logger,
	})))
	idempotency := middleware.Idempotency(cache.NewInMemoryIdempotencyStore(), time.Hour, s.Logger)
	r.Register(router.FulfillmentGroups(router.Handlers{
		Orders:          handler.NewOrderHandler(s.Orders, s.Returns),
		Stock:           handler.NewStockHandler(s.Stock),
		ExpectedReturns: handler.NewExpectedReturnHandler(s.Returns),
		Outbox:          handler.NewOutboxHandler(eventapp.NewOutboxService(s.OutboxRepo, authz.NewContextAuthorizer(), s.Logger)),
		System:          system,
	}, idempotency)...)
	r.Setup()

	return &apiServer{FulfillmentSetup: s, APIClient: testutil.APIClient{Handler: engine}, issuer: issuer, revocations: revocations}
}

func (a *apiServer) token(t *testing.T, permissions ...string) string {
	t.Helper()
	if len(permissions) == 0 {
		permissions = []string{authz.Wildcard}
	}
	return testutil.BearerToken(t, a.issuer, a.TenantID, permissions...)
}

func TestAPI_OrderLifecycleOverHTTP(t *testing.T) {
	a := newAPIServer(t)
	token := a.token(t)
	product := uuid.New()
	base := "/api/v1/warehouses/" + a.WarehouseID.String()

	w := a.Do(t, http.MethodPost, base+"/stock", token, invapp.RegisterStockLineRequest{ProductID: product, OnHand: 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.Do(t, http.MethodPost, "/api/v1/orders", token, tradeapp.CreateOrderRequest{
		CustomerName: "HTTP Customer",
		WarehouseID:  a.WarehouseID,
		Lines:        []tradeapp.CreateOrderLineRequest{Line(product, 2)},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := testutil.DecodeEnvelope[tradeapp.OrderResponse](t, w).Data
	orderPath := "/api/v1/orders/" + order.ID.String()
	assert.Contains(t, order.AvailableTriggers, "confirm")

	for _, trigger := range []string{"confirm", "approveQC", "dispatch", "deliver", "markExpectedReturn"} {
		w = a.Do(t, http.MethodPost, orderPath+"/transition", token, tradeapp.TransitionRequest{Trigger: trigger})
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", trigger, w.Body.String())
	}

	w = a.Do(t, http.MethodGet, orderPath+"/expected-return", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	entry := testutil.DecodeEnvelope[tradeapp.ExpectedReturnResponse](t, w).Data
	assert.EqualValues(t, 2, entry.TotalQuantity)

	w = a.Do(t, http.MethodGet, base+"/expected-returns", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := testutil.DecodeEnvelope[[]tradeapp.ExpectedReturnResponse](t, w)
	require.Len(t, pending.Data, 1)
	assert.EqualValues(t, 1, pending.Meta.Total)

	w = a.Do(t, http.MethodPost, "/api/v1/expected-returns/"+entry.ID.String()+"/receive", token,
		tradeapp.ReceiveReturnRequest{WarehouseID: a.WarehouseID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	received := testutil.DecodeEnvelope[tradeapp.TransitionResult](t, w).Data
	assert.Equal(t, "returned", received.Order.Status)

	w = a.Do(t, http.MethodGet, base+"/stock/"+product.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	line := testutil.DecodeEnvelope[invapp.StockLineResponse](t, w).Data
	assert.EqualValues(t, 7, line.OnHand)
	assert.EqualValues(t, 7, line.Available)

	w = a.Do(t, http.MethodGet, base+"/availability/"+product.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 7, testutil.DecodeEnvelope[invapp.AvailabilityResponse](t, w).Data.Available)
}

func TestAPI_ErrorEnvelope(t *testing.T) {
	a := newAPIServer(t)
	token := a.token(t)
	product := uuid.New()
	a.RegisterStock(t, product, 1)
	order := a.CreateOrder(t, Line(product, 3))
	a.MustFire(t, order.ID, "confirm", "approveQC")
	orderPath := "/api/v1/orders/" + order.ID.String()

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"insufficient stock", http.MethodPost, orderPath + "/transition", tradeapp.TransitionRequest{Trigger: "dispatch"}, http.StatusConflict, dto.ErrCodeInsufficientStock},
		{"illegal transition", http.MethodPost, orderPath + "/transition", tradeapp.TransitionRequest{Trigger: "deliver"}, http.StatusConflict, dto.ErrCodeIllegalTransition},
		{"unknown trigger", http.MethodPost, orderPath + "/transition", map[string]string{"trigger": "teleport"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown order", http.MethodGet, "/api/v1/orders/" + uuid.NewString(), nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"malformed id", http.MethodGet, "/api/v1/orders/not-a-uuid", nil, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"no pending return", http.MethodGet, orderPath + "/expected-return", nil, http.StatusNotFound, dto.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.Do(t, tt.method, tt.path, token, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			env := testutil.DecodeEnvelope[any](t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotEmpty(t, env.Error.RequestID)
		})
	}

	t.Run("insufficient stock names the shortfall", func(t *testing.T) {
		w := a.Do(t, http.MethodPost, orderPath+"/transition", token, tradeapp.TransitionRequest{Trigger: "dispatch"})
		env := testutil.DecodeEnvelope[any](t, w)
		require.NotNil(t, env.Error)
		assert.EqualValues(t, 1, env.Error.Details["available"])
		assert.EqualValues(t, 3, env.Error.Details["requested"])
	})
}

func TestAPI_Authentication(t *testing.T) {
	a := newAPIServer(t)

	t.Run("missing token", func(t *testing.T) {
		w := a.Do(t, http.MethodGet, "/api/v1/orders", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token from another issuer", func(t *testing.T) {
		foreign := auth.NewJWTService(config.JWTConfig{Secret: "some-other-secret-also-32-bytes-long", Issuer: "elsewhere", AccessTokenExpiration: time.Hour})
		w := a.Do(t, http.MethodGet, "/api/v1/orders", testutil.BearerToken(t, foreign, a.TenantID, authz.Wildcard), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		token := a.token(t, authz.PermOrderRead)
		require.Equal(t, http.StatusOK, a.Do(t, http.MethodGet, "/api/v1/orders", token, nil).Code)

		claims, err := a.issuer.ValidateAccessToken(token[len(middleware.BearerPrefix):])
		require.NoError(t, err)
		require.NoError(t, a.revocations.Revoke(context.Background(), claims.ID, time.Hour))

		assert.Equal(t, http.StatusUnauthorized, a.Do(t, http.MethodGet, "/api/v1/orders", token, nil).Code)
	})

	t.Run("trigger capability checked per trigger", func(t *testing.T) {
		product := uuid.New()
		a.RegisterStock(t, product, 1)
		order := a.CreateOrder(t, Line(product, 1))

		w := a.Do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/transition",
			a.token(t, authz.PermOrderConfirm), tradeapp.TransitionRequest{Trigger: "cancel"})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = a.Do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/transition",
			a.token(t, authz.PermOrderConfirm), tradeapp.TransitionRequest{Trigger: "confirm"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("health routes are public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, a.Do(t, http.MethodGet, "/health", "", nil).Code)
		assert.Equal(t, http.StatusOK, a.Do(t, http.MethodGet, "/ready", "", nil).Code)
	})
}

func TestAPI_IdempotentRetry(t *testing.T) {
	a := newAPIServer(t)
	token := a.token(t)
	product := uuid.New()
	a.RegisterStock(t, product, 10)
	order := a.CreateOrder(t, Line(product, 4))
	a.MustFire(t, order.ID, "confirm", "approveQC")
	path := "/api/v1/orders/" + order.ID.String() + "/transition"
	key := uuid.NewString()

	w := a.Do(t, http.MethodPost, path, token, tradeapp.TransitionRequest{Trigger: "dispatch"}, middleware.IdempotencyKeyHeader, key)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.Do(t, http.MethodPost, path, token, tradeapp.TransitionRequest{Trigger: "dispatch"}, middleware.IdempotencyKeyHeader, key)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeDuplicateRequest, testutil.DecodeEnvelope[any](t, w).Error.Code)

	assert.EqualValues(t, 4, a.StockOf(t, a.WarehouseID, product).Reserved, "a replayed dispatch reserves once")
}
