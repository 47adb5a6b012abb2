// Package cache is a small expiring key/value store. Entries carry their own
// TTL; reads never return an expired value.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or has expired.
var ErrMiss = errors.New("cache: miss")

// Cache stores string values with a per-entry TTL.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
