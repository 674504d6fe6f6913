package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore is an alternative durable store for deployments where the
// cache should survive the local disk (e.g. several studio instances
// sharing one artifact cache).
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store over an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(namespace, key string) string {
	return "morphic:" + namespace + ":" + key
}

// Read fetches the payload for a key
func (s *RedisStore) Read(ctx context.Context, namespace, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, redisKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Write stores the payload for a key without expiry; artifacts are
// content-addressed so stale entries are only ever equivalent entries.
func (s *RedisStore) Write(ctx context.Context, namespace, key string, payload []byte) error {
	return s.client.Set(ctx, redisKey(namespace, key), payload, 0).Err()
}

// Delete removes the entry for a key
func (s *RedisStore) Delete(ctx context.Context, namespace, key string) error {
	return s.client.Del(ctx, redisKey(namespace, key)).Err()
}
