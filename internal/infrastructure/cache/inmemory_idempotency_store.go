package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/fulfillment/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps idempotency keys in process memory. Keys
// are only shared within one instance; the factory falls back to it when
// Redis is unreachable.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// InMemoryStoreOption configures an InMemoryIdempotencyStore
type InMemoryStoreOption func(*inMemoryStoreOptions)

type inMemoryStoreOptions struct {
	sweepInterval time.Duration
	now           func() time.Time
}

// WithSweepInterval sets how often expired keys are dropped
func WithSweepInterval(d time.Duration) InMemoryStoreOption {
	return func(o *inMemoryStoreOptions) { o.sweepInterval = d }
}

// WithClock replaces time.Now for expiry decisions
func WithClock(now func() time.Time) InMemoryStoreOption {
	return func(o *inMemoryStoreOptions) { o.now = now }
}

// NewInMemoryIdempotencyStore starts a store with a background sweeper.
// Close stops the sweeper.
func NewInMemoryIdempotencyStore(opts ...InMemoryStoreOption) *InMemoryIdempotencyStore {
	o := inMemoryStoreOptions{sweepInterval: defaultSweepInterval, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	s := &InMemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		now:     o.now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.sweepEvery(o.sweepInterval)
	return s
}

// MarkProcessed claims key for ttl. It returns false while an earlier claim
// is still live.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.liveLocked(key, now) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked(key, s.now()), nil
}

func (s *InMemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expires, key)
	return nil
}

// Close stops the sweeper. It is safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
	return nil
}

// Len returns the number of stored keys, expired ones not yet swept included
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

func (s *InMemoryIdempotencyStore) liveLocked(key string, now time.Time) bool {
	expiresAt, ok := s.expires[key]
	return ok && now.Before(expiresAt)
}

func (s *InMemoryIdempotencyStore) sweepEvery(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, expiresAt := range s.expires {
		if !now.Before(expiresAt) {
			delete(s.expires, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
