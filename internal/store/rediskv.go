package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis used by RedisKV.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisKV keeps collections as plain redis strings with no expiry. Meta is
// stored as JSON under "<key>:meta".
type RedisKV struct {
	client    RedisClient
	namespace string
}

func NewRedisKV(client RedisClient, namespace string) *RedisKV {
	return &RedisKV{client: client, namespace: namespace}
}

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	fullKey, err := namespaced(s.namespace, key)
	if err != nil {
		return nil, err
	}
	value, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *RedisKV) Put(ctx context.Context, key string, value []byte, meta Meta) error {
	fullKey, err := namespaced(s.namespace, key)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, fullKey, value, 0).Err(); err != nil {
		return err
	}
	if len(meta) == 0 {
		return nil
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, fullKey+":meta", encoded, 0).Err()
}
