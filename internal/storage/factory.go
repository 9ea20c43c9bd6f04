package storage

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// StoreType selects a storage driver.
type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeRedis    StoreType = "redis"
	StoreTypePostgres StoreType = "postgres"
)

type storeConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
	pgPool      *pgxpool.Pool
}

// StoreOption configures driver construction.
type StoreOption func(*storeConfig)

// WithRedisClient supplies the client used by the redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) { c.redisClient = client }
}

// WithRedisTTL overrides the per-key TTL of the redis driver.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) { c.redisTTL = ttl }
}

// WithPostgresPool supplies the pool used by the postgres driver.
func WithPostgresPool(pool *pgxpool.Pool) StoreOption {
	return func(c *storeConfig) { c.pgPool = pool }
}

// NewStore creates a Store for the given driver type.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory:
		return newMemoryStore(), nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		ttl := config.redisTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		return &redisStore{client: config.redisClient, ttl: ttl}, nil

	case StoreTypePostgres:
		if config.pgPool == nil {
			return nil, ErrInvalidConfig
		}
		return &postgresStore{pool: config.pgPool}, nil

	default:
		return nil, ErrInvalidStoreType
	}
}
