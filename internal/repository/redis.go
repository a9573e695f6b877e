package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"oncestock/internal/config"
	"oncestock/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisCacheRepository keeps hot product lookups (the scan path) and rate
// limit counters in redis so several terminals can share them.
type RedisCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisCacheRepository(client *redis.Client, ttl time.Duration) *RedisCacheRepository {
	return &RedisCacheRepository{
		client: client,
		ttl:    ttl,
	}
}

func productKey(code string) string {
	return fmt.Sprintf("product:code:%s", code)
}

func (r *RedisCacheRepository) GetProduct(ctx context.Context, code string) (*models.Product, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, productKey(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product from redis: %w", err)
	}

	var product models.Product
	if err := json.Unmarshal([]byte(val), &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return &product, nil
}

func (r *RedisCacheRepository) SetProduct(ctx context.Context, product *models.Product) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	if err := r.client.Set(ctx, productKey(product.Code), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set product in redis: %w", err)
	}

	return nil
}

func (r *RedisCacheRepository) InvalidateProduct(ctx context.Context, code string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, productKey(code)).Err(); err != nil {
		return fmt.Errorf("failed to delete product from redis: %w", err)
	}
	return nil
}

func (r *RedisCacheRepository) CheckRateLimit(ctx context.Context, clientKey string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("rate_limit:%s", clientKey)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// Ping verifies the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
