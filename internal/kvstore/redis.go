// ABOUTME: Redis implementation of the Store interface using go-redis
// ABOUTME: For shared/server-side embeddings where identity lives off-host

package kvstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for widget identity entries
	identityKeyPrefix = "embedchat:identity:"
	// Default TTL for identity keys (30 days, matching the lifetime a
	// browser typically keeps localStorage around in practice)
	defaultIdentityTTL = 30 * 24 * time.Hour
)

// RedisStore implements Store using Redis. Useful when many widget
// processes share one identity namespace (kiosk fleets, server-rendered
// embeds).
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-backed store. A non-positive ttl
// selects the default.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultIdentityTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Get implements Store. Refreshes TTL on every read so active visitors
// keep their identity alive.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	// Refresh TTL on read; failure here is not fatal
	_ = s.client.Expire(ctx, s.key(key), s.ttl).Err()

	return val, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl).Err()
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// key constructs the Redis key for an identity entry.
func (s *RedisStore) key(k string) string {
	return identityKeyPrefix + k
}
