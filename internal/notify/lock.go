package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLocker claims a (date, meal) run with SET NX so that only one worker
// replica sends a given summary. Claims expire after their TTL and are never released.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker returns a locker storing keys under prefix.
func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "messmate:notify:"
	}
	return &RedisLocker{client: client, prefix: prefix}
}

// Acquire reports whether this caller obtained key.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+key, "1", ttl).Result()
}
