package cache

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable is returned when a store method is invoked on an uninitialised store.
var ErrStoreUnavailable = errors.New("cache: store not initialised")

// Store represents a shared cache interface used across the application.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
