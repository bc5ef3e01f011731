// Package authz carries the caller's capabilities through a request context
// and checks them before any state is read or changed.
package authz

import (
	"context"
	"slices"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
)

// Wildcard grants every permission
const Wildcard = "*"

// Permission names
const (
	PermOrderCreate           = "sales_order:create"
	PermOrderRead             = "sales_order:read"
	PermOrderConfirm          = "sales_order:confirm"
	PermOrderQC               = "sales_order:qc"
	PermOrderDispatch         = "sales_order:dispatch"
	PermOrderDeliver          = "sales_order:deliver"
	PermOrderReturn           = "sales_order:return"
	PermOrderCancel           = "sales_order:cancel"
	PermOrderDelete           = "sales_order:delete"
	PermExpectedReturnRead    = "expected_return:read"
	PermExpectedReturnReceive = "expected_return:receive"
	PermInventoryRead         = "inventory:read"
	PermInventoryManage       = "inventory:manage"
	PermOutboxManage          = "outbox:manage"
)

// AllPermissions lists every permission the service checks
var AllPermissions = []string{
	PermOrderCreate, PermOrderRead, PermOrderConfirm, PermOrderQC, PermOrderDispatch,
	PermOrderDeliver, PermOrderReturn, PermOrderCancel, PermOrderDelete,
	PermExpectedReturnRead, PermExpectedReturnReceive, PermInventoryRead, PermInventoryManage,
	PermOutboxManage,
}

// Principal is the authenticated caller
type Principal struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID
	Username    string
	Permissions []string
}

// Has reports whether the principal holds the permission
func (p Principal) Has(permission string) bool {
	return slices.Contains(p.Permissions, Wildcard) || slices.Contains(p.Permissions, permission)
}

type principalKey struct{}

// WithPrincipal returns a context carrying the principal
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal of the context, if any
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authorizer checks a capability for the caller of ctx
type Authorizer interface {
	Authorize(ctx context.Context, permission string) error
}

// ContextAuthorizer authorizes against the principal stored in the context.
// A context without a principal is denied.
type ContextAuthorizer struct{}

// NewContextAuthorizer creates a ContextAuthorizer
func NewContextAuthorizer() *ContextAuthorizer {
	return &ContextAuthorizer{}
}

// Authorize returns FORBIDDEN unless the context principal holds the permission
func (ContextAuthorizer) Authorize(ctx context.Context, permission string) error {
	p, ok := FromContext(ctx)
	if !ok || !p.Has(permission) {
		return shared.NewForbiddenError(permission)
	}
	return nil
}

// AllowAll authorizes everything. Used by trusted in-process callers.
type AllowAll struct{}

// Authorize always succeeds
func (AllowAll) Authorize(context.Context, string) error {
	return nil
}

var (
	_ Authorizer = (*ContextAuthorizer)(nil)
	_ Authorizer = AllowAll{}
)
