package cache

import (
	"context"
	"sync"
	"time"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// CacheManager 記憶體快取，TTL 到期淘汰，滿時依存取次數與時間做 LRU 淘汰
type CacheManager struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	store map[string]cacheEntry
	stats cacheStats

	stop chan struct{}
	once sync.Once
}

// cacheEntry 緩存條目
type cacheEntry struct {
	value       string
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewManager 創建新的緩存管理器並啟動清理協程，Close 時停止
func NewManager(cfg *config.CacheConfig) *CacheManager {
	m := newManager(cfg.MaxSize, cfg.TTL, time.Now)

	if cfg.CleanupInterval > 0 {
		go m.startCleanup(cfg.CleanupInterval)
	}

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)

	return m
}

func newManager(maxSize int, ttl time.Duration, now func() time.Time) *CacheManager {
	return &CacheManager{
		maxSize: maxSize,
		ttl:     ttl,
		now:     now,
		store:   make(map[string]cacheEntry),
		stop:    make(chan struct{}),
	}
}

// Get 獲取緩存值，未命中或過期回傳 ErrMiss
func (m *CacheManager) Get(ctx context.Context, namespace, key string) (string, error) {
	k := hashKey(namespace, key)

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[k]
	if !exists {
		m.stats.misses++
		common.LogCacheMiss(namespace, k)
		return "", ErrMiss
	}

	// 檢查是否過期
	if m.now().After(entry.expiresAt) {
		delete(m.store, k)
		m.stats.evictions++
		m.stats.misses++
		common.LogDebug("快取已過期", zap.String("鍵", k))
		return "", ErrMiss
	}

	// 更新訪問統計
	entry.lastAccess = m.now()
	entry.accessCount++
	m.store[k] = entry
	m.stats.hits++

	common.LogCacheHit(namespace, k)
	return entry.value, nil
}

// Set 設置緩存值，清理後仍滿時回傳 common.ErrCacheFull
func (m *CacheManager) Set(ctx context.Context, namespace, key, value string) error {
	k := hashKey(namespace, key)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[k]; !exists && len(m.store) >= m.maxSize {
		// 清理過期項目
		evicted := m.cleanup()
		common.LogDebug("快取清理執行", zap.Int("清理數量", evicted))

		// 如果仍然超過大小限制，執行 LRU 清理
		if len(m.store) >= m.maxSize {
			m.evictLRU()
		}

		if len(m.store) >= m.maxSize {
			m.stats.errors++
			common.LogWarn("快取已滿", zap.Int("目前容量", len(m.store)))
			return common.ErrCacheFull
		}
	}

	now := m.now()
	m.store[k] = cacheEntry{
		value:      value,
		expiresAt:  now.Add(m.ttl),
		createdAt:  now,
		lastAccess: now,
	}

	common.LogDebug("快取已儲存", zap.String("鍵", k))
	return nil
}

// startCleanup 定期清理過期緩存
func (m *CacheManager) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

// cleanup 清理過期的緩存，呼叫端需持有鎖
func (m *CacheManager) cleanup() int {
	now := m.now()
	count := 0

	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}

	if count > 0 {
		common.LogInfo("Cleaned up expired cache entries",
			zap.Int("count", count),
			zap.Int64("total_evictions", m.stats.evictions),
			zap.Int("remaining_size", len(m.store)),
		)
	}

	return count
}

// evictLRU 淘汰存取次數最少且最久未使用的項目，呼叫端需持有鎖
func (m *CacheManager) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogDebug("快取已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

// GetStats 獲取緩存統計信息
func (m *CacheManager) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ratio := 0.0
	if total := m.stats.hits + m.stats.misses; total > 0 {
		ratio = float64(m.stats.hits) / float64(total)
	}

	return map[string]interface{}{
		"size":      len(m.store),
		"max_size":  m.maxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"errors":    m.stats.errors,
		"hit_ratio": ratio,
	}
}

// Close 停止清理協程並清空緩存，可重複呼叫
func (m *CacheManager) Close() error {
	m.once.Do(func() {
		close(m.stop)
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]cacheEntry)
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
