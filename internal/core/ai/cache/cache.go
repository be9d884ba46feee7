package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
)

// ErrMiss 快取未命中
var ErrMiss = errors.New("cache miss")

// Cache AI 回應快取介面，namespace 區分呼叫類型與提供者
type Cache interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Close() error
}

// New 依 cache.backend 建立快取，停用時回傳 nil
func New(cfg *config.Config) (Cache, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "", "memory":
		return NewManager(&cfg.Cache), nil
	case "redis":
		rc, err := NewRedisCache(&cfg.Cache)
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	return nil, fmt.Errorf("unknown cache backend: %q", cfg.Cache.Backend)
}

// hashKey 計算快取鍵的 SHA-256 摘要
func hashKey(namespace, key string) string {
	hash := sha256.Sum256([]byte(key))
	return namespace + ":" + hex.EncodeToString(hash[:])
}
