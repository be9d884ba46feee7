package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisKeyPrefix = "ai:response:"

// RedisCache Redis 快取
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache 連線 Redis 並確認可用
func NewRedisCache(cfg *config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis cache connected", zap.String("addr", cfg.Redis.Addr))
	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

// Get 獲取緩存，未命中回傳 ErrMiss
func (s *RedisCache) Get(ctx context.Context, namespace, key string) (string, error) {
	k := redisKeyPrefix + hashKey(namespace, key)

	val, err := s.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.LogCacheMiss(namespace, k)
			return "", ErrMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}

	common.LogCacheHit(namespace, k)
	return val, nil
}

// Set 設置緩存
func (s *RedisCache) Set(ctx context.Context, namespace, key, value string) error {
	k := redisKeyPrefix + hashKey(namespace, key)

	if err := s.client.Set(ctx, k, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉連線
func (s *RedisCache) Close() error {
	return s.client.Close()
}
