package trade

import (
	"errors"
	"testing"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestOrder(t *testing.T, quantities ...int64) *SalesOrder {
	t.Helper()
	order, err := NewSalesOrder(uuid.New(), "SO-2024-0001", "Acme Retail", uuid.New())
	require.NoError(t, err)
	for _, qty := range quantities {
		_, err := order.AddLine(uuid.New(), nil, qty, decimal.NewFromFloat(12.5))
		require.NoError(t, err)
	}
	return order
}

func requireIllegal(t *testing.T, err error, status OrderStatus, trigger Trigger) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected domain error, got %v", err)
	assert.Equal(t, shared.CodeIllegalTransition, domainErr.Code)
	assert.Equal(t, string(status), domainErr.Details["status"])
	assert.Equal(t, string(trigger), domainErr.Details["trigger"])
}

func TestNewSalesOrder(t *testing.T) {
	t.Run("creates pending order without QC review", func(t *testing.T) {
		order := createTestOrder(t)

		assert.Equal(t, OrderStatusPending, order.Status)
		assert.Equal(t, QCStatusNone, order.QCStatus)
		assert.Equal(t, 1, order.Version)
		assert.True(t, order.TotalAmount.IsZero())
	})

	t.Run("fails with empty order number", func(t *testing.T) {
		_, err := NewSalesOrder(uuid.New(), "  ", "Acme", uuid.New())
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("fails without warehouse", func(t *testing.T) {
		_, err := NewSalesOrder(uuid.New(), "SO-1", "Acme", uuid.Nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Warehouse ID")
	})
}

func TestSalesOrder_AddLine(t *testing.T) {
	t.Run("recalculates total", func(t *testing.T) {
		order := createTestOrder(t, 2, 3)

		assert.Len(t, order.Lines, 2)
		assert.Equal(t, 2, order.Lines[1].LineNo)
		assert.True(t, decimal.NewFromFloat(62.5).Equal(order.TotalAmount))
		assert.Equal(t, int64(5), order.TotalQuantity())
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		order := createTestOrder(t)
		_, err := order.AddLine(uuid.New(), nil, 0, decimal.NewFromInt(1))
		assert.True(t, errors.Is(err, shared.ErrInvalidQuantity))
	})

	t.Run("rejects duplicate product and variant", func(t *testing.T) {
		order := createTestOrder(t)
		productID := uuid.New()
		_, err := order.AddLine(productID, nil, 1, decimal.Zero)
		require.NoError(t, err)

		_, err = order.AddLine(productID, nil, 1, decimal.Zero)
		assert.True(t, errors.Is(err, shared.ErrAlreadyExists))

		variantID := uuid.New()
		_, err = order.AddLine(productID, &variantID, 1, decimal.Zero)
		assert.NoError(t, err)
	})

	t.Run("rejects lines after confirmation", func(t *testing.T) {
		order := createTestOrder(t, 1)
		require.NoError(t, order.Confirm())

		_, err := order.AddLine(uuid.New(), nil, 1, decimal.Zero)
		assert.True(t, errors.Is(err, shared.ErrIllegalTransition))
	})
}

func TestSalesOrder_DispatchRequiresQCApproval(t *testing.T) {
	order := createTestOrder(t, 1)

	err := order.Dispatch()
	requireIllegal(t, err, OrderStatusPending, TriggerDispatch)
	assert.Equal(t, OrderStatusPending, order.Status)

	require.NoError(t, order.ApproveQC())
	require.NoError(t, order.Dispatch())
	assert.Equal(t, OrderStatusDispatched, order.Status)
	assert.NotNil(t, order.DispatchedAt)
}

func TestSalesOrder_QC(t *testing.T) {
	t.Run("approveQC keeps status", func(t *testing.T) {
		order := createTestOrder(t, 1)
		require.NoError(t, order.Confirm())

		require.NoError(t, order.ApproveQC())
		assert.Equal(t, OrderStatusConfirmed, order.Status)
		assert.Equal(t, QCStatusApproved, order.QCStatus)
		assert.NotNil(t, order.QCReviewedAt)
	})

	t.Run("cannot approve twice", func(t *testing.T) {
		order := createTestOrder(t, 1)
		require.NoError(t, order.ApproveQC())

		requireIllegal(t, order.ApproveQC(), OrderStatusPending, TriggerApproveQC)
	})

	t.Run("rejected order cannot be approved or dispatched", func(t *testing.T) {
		order := createTestOrder(t, 1)
		require.NoError(t, order.RejectQC())

		requireIllegal(t, order.ApproveQC(), OrderStatusPending, TriggerApproveQC)
		requireIllegal(t, order.Dispatch(), OrderStatusPending, TriggerDispatch)
		assert.NoError(t, order.Cancel("qc failed"))
	})

	t.Run("approval can be overridden by a rejection before dispatch", func(t *testing.T) {
		order := createTestOrder(t, 1)
		require.NoError(t, order.ApproveQC())
		require.NoError(t, order.RejectQC())

		assert.Equal(t, QCStatusRejected, order.QCStatus)
	})
}

func TestSalesOrder_FullLifecycle(t *testing.T) {
	order := createTestOrder(t, 5)

	steps := []struct {
		trigger Trigger
		want    OrderStatus
	}{
		{TriggerConfirm, OrderStatusConfirmed},
		{TriggerApproveQC, OrderStatusConfirmed},
		{TriggerDispatch, OrderStatusDispatched},
		{TriggerDeliver, OrderStatusDelivered},
		{TriggerConfirmDelivered, OrderStatusConfirmedDelivered},
	}
	for _, step := range steps {
		_, err := order.Fire(step.trigger, "")
		require.NoError(t, err, "trigger %s", step.trigger)
		assert.Equal(t, step.want, order.Status)
	}

	assert.True(t, order.IsTerminal())
	assert.Empty(t, order.AvailableTriggers())
	assert.Len(t, order.GetDomainEvents(), len(steps))
}

func TestSalesOrder_IllegalTransitions(t *testing.T) {
	cases := []struct {
		name    string
		setup   []Trigger
		trigger Trigger
		status  OrderStatus
	}{
		{"deliver before dispatch", nil, TriggerDeliver, OrderStatusPending},
		{"confirm twice", []Trigger{TriggerConfirm}, TriggerConfirm, OrderStatusConfirmed},
		{"cancel after dispatch", []Trigger{TriggerApproveQC, TriggerDispatch}, TriggerCancel, OrderStatusDispatched},
		{"delete after dispatch", []Trigger{TriggerApproveQC, TriggerDispatch}, TriggerDelete, OrderStatusDispatched},
		{"expected return before delivery", []Trigger{TriggerApproveQC, TriggerDispatch}, TriggerMarkExpectedReturn, OrderStatusDispatched},
		{"receive without expected return", []Trigger{TriggerApproveQC, TriggerDispatch, TriggerDeliver}, TriggerReceiveReturn, OrderStatusDelivered},
		{"return after confirmed delivery", []Trigger{TriggerApproveQC, TriggerDispatch, TriggerDeliver, TriggerConfirmDelivered}, TriggerMarkExpectedReturn, OrderStatusConfirmedDelivered},
		{"anything after cancel", []Trigger{TriggerCancel}, TriggerApproveQC, OrderStatusCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := createTestOrder(t, 1)
			for _, trigger := range tc.setup {
				_, err := order.Fire(trigger, "")
				require.NoError(t, err)
			}
			before := len(order.GetDomainEvents())

			_, err := order.Fire(tc.trigger, "")

			requireIllegal(t, err, tc.status, tc.trigger)
			assert.Equal(t, tc.status, order.Status)
			assert.Len(t, order.GetDomainEvents(), before)
		})
	}
}

func TestSalesOrder_MarkExpectedReturn(t *testing.T) {
	order := createTestOrder(t, 5, 2)
	for _, trigger := range []Trigger{TriggerApproveQC, TriggerDispatch, TriggerDeliver} {
		_, err := order.Fire(trigger, "")
		require.NoError(t, err)
	}

	entry, err := order.Fire(TriggerMarkExpectedReturn, "")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, OrderStatusExpectedReturn, order.Status)
	assert.Equal(t, order.ID, entry.OrderID)
	assert.Equal(t, order.WarehouseID, entry.WarehouseID)
	assert.Equal(t, ReturnStatusPending, entry.Status)
	assert.Len(t, entry.Lines, 2)
	assert.Equal(t, int64(7), entry.TotalQuantity())

	require.NoError(t, order.MarkReturned())
	assert.Equal(t, OrderStatusReturned, order.Status)
	assert.NotNil(t, order.ReturnedAt)
}

func TestSalesOrder_Movements(t *testing.T) {
	order := createTestOrder(t, 4, 6)

	t.Run("dispatch reserves every line at the dispatch warehouse", func(t *testing.T) {
		movements, err := order.Movements(TriggerDispatch)

		require.NoError(t, err)
		require.Len(t, movements, 2)
		for i, m := range movements {
			assert.Equal(t, inventory.MovementReserve, m.Kind)
			assert.Equal(t, order.WarehouseID, m.Key.WarehouseID)
			assert.Equal(t, order.Lines[i].Quantity, m.Quantity)
		}
	})

	t.Run("expected return takes units out of delivered", func(t *testing.T) {
		movements, err := order.Movements(TriggerMarkExpectedReturn)

		require.NoError(t, err)
		assert.Equal(t, inventory.StageDelivered, movements[0].Stage)
	})

	t.Run("QC triggers have no ledger effect", func(t *testing.T) {
		movements, err := order.Movements(TriggerApproveQC)

		require.NoError(t, err)
		assert.Empty(t, movements)
	})
}

func TestSalesOrder_Delete(t *testing.T) {
	order := createTestOrder(t, 1)
	require.NoError(t, order.Confirm())

	require.NoError(t, order.EnsureDeletable())

	events := order.GetDomainEvents()
	evt, ok := events[len(events)-1].(*SalesOrderStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, TriggerDelete, evt.Trigger)

	t.Run("pending order", func(t *testing.T) {
		assert.NoError(t, createTestOrder(t, 1).EnsureDeletable())
	})

	t.Run("cancelled order", func(t *testing.T) {
		order := createTestOrder(t, 1)
		require.NoError(t, order.Cancel("customer request"))
		requireIllegal(t, order.EnsureDeletable(), OrderStatusCancelled, TriggerDelete)
	})
}

func TestParseTrigger(t *testing.T) {
	for _, trigger := range AllTriggers {
		parsed, err := ParseTrigger(string(trigger))
		require.NoError(t, err)
		assert.Equal(t, trigger, parsed)
	}

	_, err := ParseTrigger("teleport")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestSalesOrder_AvailableTriggers(t *testing.T) {
	order := createTestOrder(t, 1)

	assert.ElementsMatch(t,
		[]Trigger{TriggerConfirm, TriggerApproveQC, TriggerRejectQC, TriggerCancel, TriggerDelete},
		order.AvailableTriggers())
}
