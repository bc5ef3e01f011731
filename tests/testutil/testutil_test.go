package testutil

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/domain/trade"
	"github.com/erp/fulfillment/internal/infrastructure/auth"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestUUID_IsStable(t *testing.T) {
	assert.Equal(t, NewTestUUID("warehouse-a"), NewTestUUID("warehouse-a"))
	assert.NotEqual(t, NewTestUUID("warehouse-a"), NewTestUUID("warehouse-b"))
	assert.NotEqual(t, TestTenantID(), TestUserID())
}

func TestTestPrincipal(t *testing.T) {
	p := TestPrincipal(TestTenantID())
	assert.Equal(t, []string{authz.Wildcard}, p.Permissions)
	assert.Equal(t, TestUserID(), p.UserID)

	p = TestPrincipal(TestTenantID(), authz.PermOrderRead)
	assert.Equal(t, []string{authz.PermOrderRead}, p.Permissions)
}

func TestOperatorContext(t *testing.T) {
	ctx := OperatorContext(TestTenantID(), authz.PermInventoryManage)
	p, ok := authz.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, TestTenantID(), p.TenantID)
	assert.Equal(t, []string{authz.PermInventoryManage}, p.Permissions)
}

func TestEventually(t *testing.T) {
	var n atomic.Int32
	assert.True(t, Eventually(t, time.Second, func() bool { return n.Add(1) >= 3 }))
	assert.False(t, Eventually(t, 30*time.Millisecond, func() bool { return false }))
}

func TestMockEventHandler(t *testing.T) {
	h := NewMockEventHandler(trade.EventTypeSalesOrderCreated, trade.EventTypeSalesOrderStatusChanged)
	assert.Equal(t, []string{trade.EventTypeSalesOrderCreated, trade.EventTypeSalesOrderStatusChanged}, h.EventTypes())

	ctx := context.Background()
	require.NoError(t, h.Handle(ctx, NewTestEvent(trade.EventTypeSalesOrderCreated, TestTenantID())))
	require.NoError(t, h.Handle(ctx, NewTestEvent(trade.EventTypeSalesOrderStatusChanged, TestTenantID())))

	h.SetError(errors.New("boom"))
	assert.Error(t, h.Handle(ctx, NewTestEvent(trade.EventTypeSalesOrderStatusChanged, TestTenantID())))

	assert.Equal(t, 3, h.HandledCount())
	assert.Len(t, h.HandledOfType(trade.EventTypeSalesOrderStatusChanged), 2)

	handled := h.Handled()
	handled[0] = nil
	assert.NotNil(t, h.Handled()[0], "Handled returns a copy")
}

func TestWaitForEventCount(t *testing.T) {
	h := NewMockEventHandler()
	go func() {
		for i := 0; i < 3; i++ {
			_ = h.Handle(context.Background(), NewTestEvent(trade.EventTypeExpectedReturnCreated, TestTenantID()))
		}
	}()
	assert.True(t, WaitForEventCount(t, h, 3, time.Second))
}

func TestAPIClient(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		_ = c.ShouldBindJSON(&body)
		body["auth"] = c.GetHeader("Authorization")
		body["key"] = c.GetHeader("Idempotency-Key")
		c.JSON(http.StatusOK, dto.NewSuccessResponse(body))
	})

	w := APIClient{Handler: engine}.Do(t, http.MethodPost, "/echo", "Bearer x", map[string]string{"warehouse": "A"},
		"Idempotency-Key", "k1")
	require.Equal(t, http.StatusOK, w.Code)

	env := DecodeEnvelope[map[string]string](t, w)
	assert.True(t, env.Success)
	assert.Equal(t, map[string]string{"warehouse": "A", "auth": "Bearer x", "key": "k1"}, env.Data)
}

func TestBearerToken(t *testing.T) {
	issuer := auth.NewJWTService(config.JWTConfig{
		Secret:                "testutil-secret-at-least-32-bytes-long",
		Issuer:                "testutil",
		AccessTokenExpiration: time.Minute,
	})

	header := BearerToken(t, issuer, TestTenantID(), authz.PermOrderRead)
	require.Greater(t, len(header), len("Bearer "))
	assert.Equal(t, "Bearer ", header[:len("Bearer ")])

	claims, err := issuer.ValidateAccessToken(header[len("Bearer "):])
	require.NoError(t, err)
	principal, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, TestTenantID(), principal.TenantID)
	assert.Equal(t, []string{authz.PermOrderRead}, principal.Permissions)
}
