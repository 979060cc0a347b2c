package cache

import (
	"context"
	"time"
)

// Store represents a shared cache interface used across the application.
// Values are immutable once written; identical-key writes only ever replace a
// value with an equivalent one, so races at worst cost a duplicate upstream
// fetch.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}
