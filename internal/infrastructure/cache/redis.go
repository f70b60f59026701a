// Package cache backs the currency oracle's cache-aside layer with Redis.
// Currency reference data is the only thing this service caches: balances
// and rollover totals are transactional state and always come from Postgres.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/playerwallet/wallet-service/internal/infrastructure/config"
)

// Store is the narrow surface the currency client needs: JSON-encoded reads
// and writes with a TTL, plus Close for shutdown.
type Store interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Close() error
}

type redisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient connects to Redis and verifies the connection with a ping
// before handing the store out; an unreachable Redis surfaces here, at
// startup, so the caller can fall back to the uncached oracle client.
func NewRedisClient(cfg *config.RedisConfig, logger *zap.Logger) (Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("connected to Redis", zap.String("host", cfg.Host), zap.Int("port", cfg.Port))

	return &redisStore{client: rdb, logger: logger}, nil
}

// Set stores value as JSON under key for ttl.
func (r *redisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// Get retrieves the JSON value under key and unmarshals it into dest.
func (r *redisStore) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("key %q not found: %w", key, err)
	} else if err != nil {
		return fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return json.Unmarshal([]byte(val), dest)
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
