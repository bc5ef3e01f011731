package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	invapp "github.com/erp/fulfillment/internal/application/inventory"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/erp/fulfillment/internal/infrastructure/auth"
	"github.com/erp/fulfillment/internal/infrastructure/cache"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

// redisFactory starts a throwaway Redis and returns a cache factory that
// refuses to fall back to memory
func redisFactory(t *testing.T) *cache.Factory {
	t.Helper()
	skipIfShort(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err, "start redis")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	f := cache.NewFactory(config.RedisConfig{Host: host, Port: port.Int()},
		cache.WithLogger(zaptest.NewLogger(t)),
		cache.WithInMemoryFallback(false),
	)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestRedis_IdempotencyKeysAreClaimedOnce(t *testing.T) {
	f := redisFactory(t)
	store, err := f.IdempotencyStore(cache.EventIdempotencyPrefix)
	require.NoError(t, err)
	_, isRedis := store.(*cache.RedisIdempotencyStore)
	require.True(t, isRedis)

	ctx := context.Background()
	key := "SalesOrderStatusChanged:" + uuid.NewString()

	var (
		wg  sync.WaitGroup
		won atomic.Int32
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := store.MarkProcessed(ctx, key, time.Minute); err == nil && ok {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, won.Load())

	seen, err := store.IsProcessed(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, store.Forget(ctx, key))
	seen, err = store.IsProcessed(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)

	// scopes do not see each other's keys
	httpStore, err := f.IdempotencyStore(cache.HTTPIdempotencyPrefix)
	require.NoError(t, err)
	_, err = store.MarkProcessed(ctx, "shared", time.Minute)
	require.NoError(t, err)
	fresh, err := httpStore.MarkProcessed(ctx, "shared", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestRedis_StockCacheRoundTrip(t *testing.T) {
	stock := redisFactory(t).StockCache(time.Minute)
	ctx := context.Background()
	tenant := uuid.New()
	key := inventory.NewStockKey(uuid.New(), uuid.New(), nil)

	_, hit := stock.Get(ctx, tenant, key)
	assert.False(t, hit)

	stock.Set(ctx, tenant, key, invapp.StockLineResponse{OnHand: 10, Reserved: 4, Available: 6})
	line, hit := stock.Get(ctx, tenant, key)
	require.True(t, hit)
	assert.EqualValues(t, 6, line.Available)

	_, hit = stock.Get(ctx, uuid.New(), key)
	assert.False(t, hit, "another tenant must not read the snapshot")

	require.NoError(t, stock.Invalidate(ctx, tenant, key))
	_, hit = stock.Get(ctx, tenant, key)
	assert.False(t, hit)
}

func TestRedis_RevocationList(t *testing.T) {
	revocations := redisFactory(t).Revocations()
	_, isRedis := revocations.(*auth.RedisRevocationList)
	require.True(t, isRedis)

	ctx := context.Background()
	require.NoError(t, revocations.Revoke(ctx, "jti-live", time.Minute))
	require.NoError(t, revocations.Revoke(ctx, "jti-expired", 0))

	revoked, err := revocations.IsRevoked(ctx, "jti-live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = revocations.IsRevoked(ctx, "jti-expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}
