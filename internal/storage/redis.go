package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "widget:"

// redisStore keys expire after ttl; reads refresh the TTL so an active
// browsing session keeps its state alive.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	// Refresh TTL on read
	_ = s.client.Expire(ctx, redisKeyPrefix+key, s.ttl).Err()

	return val, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, redisKeyPrefix+key, value, s.ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
