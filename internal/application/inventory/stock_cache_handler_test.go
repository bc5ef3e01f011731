package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStockCacheInvalidationHandler(t *testing.T) {
	tenantID := uuid.New()
	variantID := uuid.New()
	key := inventory.NewStockKey(uuid.New(), uuid.New(), &variantID)
	line, err := inventory.NewStockLine(tenantID, key, 10)
	require.NoError(t, err)
	movement, err := inventory.NewMovement(inventory.MovementReserve, key, 2)
	require.NoError(t, err)

	t.Run("subscribes to every stock event", func(t *testing.T) {
		h := NewStockCacheInvalidationHandler(new(MockStockCache), nil)
		assert.Contains(t, h.EventTypes(), inventory.EventTypeStockReserved)
		assert.Contains(t, h.EventTypes(), inventory.EventTypeReturnReceived)
	})

	t.Run("invalidates the moved line", func(t *testing.T) {
		cache := new(MockStockCache)
		cache.On("Invalidate", mock.Anything, tenantID, mock.MatchedBy(func(k inventory.StockKey) bool {
			return k.Equal(key)
		})).Return(nil)
		h := NewStockCacheInvalidationHandler(cache, nil)

		err := h.Handle(context.Background(), inventory.NewStockMovedEvent(line, movement))

		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("returns cache errors for retry", func(t *testing.T) {
		cache := new(MockStockCache)
		cache.On("Invalidate", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
		h := NewStockCacheInvalidationHandler(cache, nil)

		err := h.Handle(context.Background(), inventory.NewStockLineRegisteredEvent(line))

		assert.Error(t, err)
	})
}
