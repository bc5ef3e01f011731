package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	appinv "github.com/erp/fulfillment/internal/application/inventory"
	"github.com/erp/fulfillment/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultStockCacheTTL bounds how long a snapshot may be served after a
// missed invalidation
const DefaultStockCacheTTL = 30 * time.Second

func stockCacheKey(tenantID uuid.UUID, key inventory.StockKey) string {
	return fmt.Sprintf("fulfillment:stock:%s:%s", tenantID, key)
}

// RedisStockCache implements StockCache using Redis.
// Errors are logged and reported as misses.
type RedisStockCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStockCache creates a stock cache on a shared Redis client.
// The caller keeps ownership of the client.
func NewRedisStockCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisStockCache {
	if ttl <= 0 {
		ttl = DefaultStockCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStockCache{client: client, ttl: ttl, logger: logger}
}

// Get returns a cached snapshot
func (c *RedisStockCache) Get(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) (*appinv.StockLineResponse, bool) {
	cacheKey := stockCacheKey(tenantID, key)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Failed to get stock line from cache", zap.String("key", cacheKey), zap.Error(err))
		return nil, false
	}

	var line appinv.StockLineResponse
	if err := json.Unmarshal(data, &line); err != nil {
		c.logger.Warn("Dropping corrupted stock cache entry", zap.String("key", cacheKey), zap.Error(err))
		_ = c.client.Del(ctx, cacheKey)
		return nil, false
	}
	return &line, true
}

// Set stores a snapshot with the configured TTL
func (c *RedisStockCache) Set(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey, line appinv.StockLineResponse) {
	cacheKey := stockCacheKey(tenantID, key)

	data, err := json.Marshal(line)
	if err != nil {
		c.logger.Warn("Failed to marshal stock line", zap.String("key", cacheKey), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to set stock line in cache", zap.String("key", cacheKey), zap.Error(err))
	}
}

// Invalidate removes a snapshot
func (c *RedisStockCache) Invalidate(ctx context.Context, tenantID uuid.UUID, key inventory.StockKey) error {
	if err := c.client.Del(ctx, stockCacheKey(tenantID, key)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stock cache: %w", err)
	}
	return nil
}

// InMemoryStockCache implements StockCache in process memory
type InMemoryStockCache struct {
	mu      sync.RWMutex
	entries map[string]stockEntry
	ttl     time.Duration
	now     func() time.Time
}

type stockEntry struct {
	line      appinv.StockLineResponse
	expiresAt time.Time
}

// NewInMemoryStockCache creates an in-memory stock cache
func NewInMemoryStockCache(ttl time.Duration) *InMemoryStockCache {
	if ttl <= 0 {
		ttl = DefaultStockCacheTTL
	}
	return &InMemoryStockCache{
		entries: make(map[string]stockEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a cached snapshot that has not expired
func (c *InMemoryStockCache) Get(_ context.Context, tenantID uuid.UUID, key inventory.StockKey) (*appinv.StockLineResponse, bool) {
	c.mu.RLock()
	e, ok := c.entries[stockCacheKey(tenantID, key)]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	line := e.line
	return &line, true
}

// Set stores a snapshot
func (c *InMemoryStockCache) Set(_ context.Context, tenantID uuid.UUID, key inventory.StockKey, line appinv.StockLineResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[stockCacheKey(tenantID, key)] = stockEntry{line: line, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate removes a snapshot
func (c *InMemoryStockCache) Invalidate(_ context.Context, tenantID uuid.UUID, key inventory.StockKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, stockCacheKey(tenantID, key))
	return nil
}

var (
	_ appinv.StockCache = (*RedisStockCache)(nil)
	_ appinv.StockCache = (*InMemoryStockCache)(nil)
)
