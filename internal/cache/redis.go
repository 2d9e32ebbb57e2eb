package cache

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"git-repo-analytics/internal/redis"
)

// RedisStore backs the cache with the shared Redis client. Expiry is native
// (SET with TTL), so envelopes are stored as raw values.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing Redis client. The prefix namespaces cache
// keys away from the job queue living in the same database.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "cache:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrMiss
		}
		// An unreachable or misbehaving Redis degrades to a miss; callers
		// recompute rather than fail.
		return nil, ErrMiss
	}
	return raw, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0 // go-redis treats 0 as no expiry
	}
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Close is a no-op: the underlying client is shared with the queue and closed
// by its owner.
func (s *RedisStore) Close() error {
	return nil
}
