package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dealerflow/backend/internal/domain/shared"
	gocache "github.com/patrickmn/go-cache"
)

// InMemoryIdempotencyStore implements IdempotencyStore in process memory.
// Suitable for single-instance deployments and tests only: a second API
// instance will not see keys remembered here.
type InMemoryIdempotencyStore struct {
	// go-cache Add is atomic, but Remember needs Add and Get under one lock
	mu    sync.Mutex
	items *gocache.Cache
}

// NewInMemoryIdempotencyStore creates a store that sweeps expired keys every cleanupInterval
func NewInMemoryIdempotencyStore(cleanupInterval time.Duration) *InMemoryIdempotencyStore {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	return &InMemoryIdempotencyStore{
		items: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Remember stores value under key unless an unexpired value is already there
func (s *InMemoryIdempotencyStore) Remember(_ context.Context, key, value string, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.items.Add(key, value, ttl); err == nil {
		return value, true, nil
	}
	existing, found := s.items.Get(key)
	if !found {
		// expired between Add and Get
		s.items.Set(key, value, ttl)
		return value, true, nil
	}
	return existing.(string), false, nil
}

// Lookup returns the value stored for key, or "" when absent or expired
func (s *InMemoryIdempotencyStore) Lookup(_ context.Context, key string) (string, error) {
	value, found := s.items.Get(key)
	if !found {
		return "", nil
	}
	return value.(string), nil
}

// Close drops all keys. The janitor goroutine exits once the store is garbage collected.
func (s *InMemoryIdempotencyStore) Close() error {
	s.items.Flush()
	return nil
}

// Size returns the number of keys held, expired-but-unswept ones included
func (s *InMemoryIdempotencyStore) Size() int {
	return s.items.ItemCount()
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
