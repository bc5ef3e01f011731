package cache

import (
	"context"
	"fmt"
	"time"

	appinv "github.com/erp/fulfillment/internal/application/inventory"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/auth"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key prefixes for the two idempotency scopes
const (
	HTTPIdempotencyPrefix  = "fulfillment:idempotency:http:"
	EventIdempotencyPrefix = "fulfillment:idempotency:event:"
)

// Factory builds the Redis-backed stores on one shared client and falls
// back to in-memory stores when Redis is unreachable
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	client                *redis.Client
	dialErr               error
	dialed                bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) redisClient() (*redis.Client, error) {
	if !f.dialed {
		f.client, f.dialErr = dial(f.redisConfig)
		f.dialed = true
	}
	return f.client, f.dialErr
}

// IdempotencyStore creates an idempotency store under the given key prefix.
// In-memory stores do not share state across instances, so a fallback store
// only protects a single process.
func (f *Factory) IdempotencyStore(prefix string) (shared.IdempotencyStore, error) {
	client, err := f.redisClient()
	if err == nil {
		f.logger.Info("Using Redis idempotency store", zap.String("prefix", prefix))
		return NewRedisIdempotencyStore(client, prefix), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for idempotency but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
		zap.String("prefix", prefix),
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}

// StockCache creates the stock-level cache
func (f *Factory) StockCache(ttl time.Duration) appinv.StockCache {
	client, err := f.redisClient()
	if err == nil {
		f.logger.Info("Using Redis stock cache", zap.Duration("ttl", ttl))
		return NewRedisStockCache(client, ttl, f.logger)
	}
	f.logger.Warn("Redis unavailable, using in-memory stock cache", zap.Error(err))
	return NewInMemoryStockCache(ttl)
}

// Revocations returns the access token revocation list
func (f *Factory) Revocations() auth.RevocationList {
	client, err := f.redisClient()
	if err == nil {
		return auth.NewRedisRevocationList(client)
	}
	f.logger.Warn("Redis unavailable, using in-memory revocation list", zap.Error(err))
	return auth.NewMemoryRevocationList()
}

// Ping checks the shared Redis connection. It reports nil when the factory
// runs on in-memory fallbacks.
func (f *Factory) Ping(ctx context.Context) error {
	if f.client == nil {
		return nil
	}
	return f.client.Ping(ctx).Err()
}

// Close releases the shared Redis client
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
