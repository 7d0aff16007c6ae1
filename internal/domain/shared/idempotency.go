package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers the outcome of a client request keyed by the
// Idempotency-Key header so a retried request does not issue a second document.
type IdempotencyStore interface {
	// Remember stores value under key if the key is not already present.
	// Returns the previously stored value and false if the key existed.
	Remember(ctx context.Context, key, value string, ttl time.Duration) (existing string, stored bool, err error)

	// Lookup returns the stored value for key, or "" if absent or expired
	Lookup(ctx context.Context, key string) (string, error)

	// Close releases resources held by the store
	Close() error
}

// IdempotencyConfig holds configuration for request idempotency
type IdempotencyConfig struct {
	// TTL is how long a key is remembered. Default: 24 hours
	TTL time.Duration

	// Enabled determines whether the Idempotency-Key header is honoured
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
