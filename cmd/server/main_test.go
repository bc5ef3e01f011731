package main

import (
	"context"
	"testing"
	"time"

	invapp "github.com/erp/fulfillment/internal/application/inventory"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/infrastructure/cache"
	"github.com/erp/fulfillment/internal/infrastructure/event"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopRecorder struct{}

func (nopRecorder) RecordTransition(context.Context, string, string, string, int64) {}
func (nopRecorder) RecordReturnReceived(context.Context, bool, int64)               {}

func TestEventHandlers(t *testing.T) {
	t.Run("metrics only without a stock cache", func(t *testing.T) {
		handlers := eventHandlers(nopRecorder{}, nil, zap.NewNop())
		assert.Len(t, handlers, 1)
	})

	t.Run("delivered movement drops a stale snapshot", func(t *testing.T) {
		stockCache := cache.NewInMemoryStockCache(time.Minute)
		bus := event.NewInMemoryEventBus(zap.NewNop())
		for _, h := range eventHandlers(nopRecorder{}, stockCache, zap.NewNop()) {
			bus.Subscribe(h)
		}

		tenantID := uuid.New()
		key := inventory.NewStockKey(uuid.New(), uuid.New(), nil)
		line, err := inventory.NewStockLine(tenantID, key, 10)
		require.NoError(t, err)
		reserve, err := inventory.NewMovement(inventory.MovementReserve, key, 4)
		require.NoError(t, err)

		// a read that raced the commit puts the pre-reserve counters back
		ctx := context.Background()
		stockCache.Set(ctx, tenantID, key, invapp.ToStockLineResponse(line))
		require.NoError(t, line.Apply(reserve))

		require.NoError(t, bus.Publish(ctx, inventory.NewStockMovedEvent(line, reserve)))

		_, hit := stockCache.Get(ctx, tenantID, key)
		assert.False(t, hit)
	})
}
