package cache

import (
	"context"
	"testing"
	"time"

	appinv "github.com/erp/fulfillment/internal/application/inventory"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStockCache(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	key := inventory.NewStockKey(uuid.New(), uuid.New(), nil)

	t.Run("miss then hit", func(t *testing.T) {
		c := NewInMemoryStockCache(time.Minute)

		_, ok := c.Get(ctx, tenantID, key)
		assert.False(t, ok)

		c.Set(ctx, tenantID, key, appinv.StockLineResponse{OnHand: 10, Available: 6})
		got, ok := c.Get(ctx, tenantID, key)
		require.True(t, ok)
		assert.Equal(t, int64(10), got.OnHand)
		assert.Equal(t, int64(6), got.Available)
	})

	t.Run("tenants and variants do not share entries", func(t *testing.T) {
		c := NewInMemoryStockCache(time.Minute)
		variant := uuid.New()
		variantKey := inventory.NewStockKey(key.WarehouseID, key.ProductID, &variant)

		c.Set(ctx, tenantID, key, appinv.StockLineResponse{OnHand: 10})

		_, ok := c.Get(ctx, uuid.New(), key)
		assert.False(t, ok)
		_, ok = c.Get(ctx, tenantID, variantKey)
		assert.False(t, ok)
	})

	t.Run("invalidate drops the entry", func(t *testing.T) {
		c := NewInMemoryStockCache(time.Minute)
		c.Set(ctx, tenantID, key, appinv.StockLineResponse{OnHand: 10})

		require.NoError(t, c.Invalidate(ctx, tenantID, key))

		_, ok := c.Get(ctx, tenantID, key)
		assert.False(t, ok)
	})

	t.Run("entries expire", func(t *testing.T) {
		c := NewInMemoryStockCache(time.Minute)
		now := time.Now()
		c.now = func() time.Time { return now }
		c.Set(ctx, tenantID, key, appinv.StockLineResponse{OnHand: 10})

		c.now = func() time.Time { return now.Add(2 * time.Minute) }
		_, ok := c.Get(ctx, tenantID, key)
		assert.False(t, ok)
	})
}
