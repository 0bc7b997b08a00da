package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nannylink/internal/config"
	"nannylink/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisSummaryCache) Get(ctx context.Context, userID string) (*models.Summary, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	key := summaryKey(userID)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary from redis: %w", err)
	}

	var summary models.Summary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}

	return &summary, nil
}

func (r *RedisSummaryCache) Set(ctx context.Context, summary *models.Summary) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := summaryKey(summary.UserID)
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set summary in redis: %w", err)
	}

	return nil
}

func (r *RedisSummaryCache) Invalidate(ctx context.Context, userID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, summaryKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete summary from redis: %w", err)
	}
	return nil
}

func summaryKey(userID string) string {
	return fmt.Sprintf("summary:%s", userID)
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
