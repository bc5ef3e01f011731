// Package testutil holds helpers shared by the fulfillment test suites:
// deterministic identities, callers carrying capabilities, an event handler
// double and a client for driving the HTTP API.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// NewTestUUID derives a stable UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(testNamespace, []byte(seed))
}

func TestTenantID() uuid.UUID    { return NewTestUUID("test-tenant") }
func TestUserID() uuid.UUID      { return NewTestUUID("test-user") }
func TestWarehouseID() uuid.UUID { return NewTestUUID("test-warehouse") }

// TestPrincipal builds an operator of tenantID. Without permissions the
// operator holds the wildcard.
func TestPrincipal(tenantID uuid.UUID, permissions ...string) authz.Principal {
	if len(permissions) == 0 {
		permissions = []string{authz.Wildcard}
	}
	return authz.Principal{
		UserID:      TestUserID(),
		TenantID:    tenantID,
		Username:    "tester",
		Permissions: permissions,
	}
}

// OperatorContext returns a background context carrying TestPrincipal
func OperatorContext(tenantID uuid.UUID, permissions ...string) context.Context {
	return authz.WithPrincipal(context.Background(), TestPrincipal(tenantID, permissions...))
}

// Eventually polls condition every 10ms until it holds or timeout passes.
// It reports whether the condition was met.
func Eventually(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(timeout)
	for {
		if condition() {
			return true
		}
		select {
		case <-deadline:
			return condition()
		case <-ticker.C:
		}
	}
}
