package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "dealerflow:idempotency:"

// RedisIdempotencyStore implements IdempotencyStore using Redis.
// Keys are shared by every API instance pointing at the same Redis.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisIdempotencyStore connects to Redis and verifies the connection with PING
func NewRedisIdempotencyStore(ctx context.Context, cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisIdempotencyStoreWithClient(client, ""), nil
}

// NewRedisIdempotencyStoreWithClient wraps an existing client
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Remember stores value with SET NX so the first writer wins.
// When the key already exists the stored value is returned with stored=false.
func (s *RedisIdempotencyStore) Remember(ctx context.Context, key, value string, ttl time.Duration) (string, bool, error) {
	fullKey := s.keyPrefix + key

	stored, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to store idempotency key: %w", err)
	}
	if stored {
		return value, true, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; the caller's value is as good as any
		return s.Remember(ctx, key, value, ttl)
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return existing, false, nil
}

// Lookup returns the value stored for key, or "" when there is none
func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return value, nil
}

// Ping reports whether Redis is reachable
func (s *RedisIdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
