package registry

import (
	"net/http"
	"sync"
	"time"

	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// Auto 自動選擇提供者
const Auto = "auto"

// DefaultRetryAfter 未提供 Retry-After 時的限流時長
const DefaultRetryAfter = 60 * time.Second

// 提供者狀態
const (
	StatusAvailable   = "available"
	StatusRateLimited = "rate-limited"
)

// Status 提供者目前狀態
type Status struct {
	Key             string                `json:"key"`
	Name            string                `json:"name"`
	Model           string                `json:"model,omitempty"`
	Capabilities    provider.Capabilities `json:"capabilities"`
	Status          string                `json:"status"`
	RateLimitExpiry *time.Time            `json:"rateLimitExpiry,omitempty"`
}

// Registry 管理提供者與各自的限流時段
type Registry struct {
	providers []provider.Provider
	byKey     map[string]provider.Provider
	now       func() time.Time

	mu      sync.RWMutex
	windows map[string]time.Time
}

// Option 設定 Registry
type Option func(*Registry)

// WithClock 替換時鐘（測試用）
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New 創建 Registry，providers 的順序即自動選擇順序
func New(providers []provider.Provider, opts ...Option) *Registry {
	r := &Registry{
		byKey:   make(map[string]provider.Provider, len(providers)),
		now:     time.Now,
		windows: make(map[string]time.Time),
	}
	for _, p := range providers {
		key := p.Descriptor().Key
		if _, dup := r.byKey[key]; dup {
			continue
		}
		r.byKey[key] = p
		r.providers = append(r.providers, p)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Len 已設定的提供者數量
func (r *Registry) Len() int {
	return len(r.providers)
}

// Get 依鍵值取得提供者
func (r *Registry) Get(key string) (provider.Provider, bool) {
	p, ok := r.byKey[key]
	return p, ok
}

// SelectProvider 選擇提供者。
// 指定且未限流的提供者直接回傳；auto、未知或已限流時，依序取第一個未限流的提供者。
func (r *Registry) SelectProvider(key string) (provider.Provider, error) {
	if len(r.providers) == 0 {
		return nil, common.NewError(common.ErrCodeProviderUnavailable,
			"No AI provider is configured. Please set at least one provider API key.",
			http.StatusInternalServerError, nil)
	}

	if key != "" && key != Auto {
		if p, ok := r.byKey[key]; ok {
			if !r.IsRateLimited(key) {
				return p, nil
			}
			common.LogWarn("Requested provider is rate limited, falling back", zap.String("provider", key))
		} else {
			common.LogWarn("Unknown provider requested, falling back", zap.String("provider", key))
		}
	}

	for _, p := range r.providers {
		if !r.IsRateLimited(p.Descriptor().Key) {
			return p, nil
		}
	}

	err := common.NewError(common.ErrCodeProviderUnavailable,
		"All AI providers are currently rate limited. Please try again later.",
		http.StatusServiceUnavailable, nil)
	err.RetryAfter = r.soonestRetryAfter()
	return nil, err
}

// RecordRateLimit 記錄限流，新的記錄覆蓋舊的；retryAfterSeconds <= 0 時使用預設值
func (r *Registry) RecordRateLimit(key string, retryAfterSeconds int) {
	d := time.Duration(retryAfterSeconds) * time.Second
	if retryAfterSeconds <= 0 {
		d = DefaultRetryAfter
	}
	until := r.now().Add(d)

	r.mu.Lock()
	r.windows[key] = until
	r.mu.Unlock()

	common.LogWarn("Provider rate limited",
		zap.String("provider", key),
		zap.Duration("retry_after", d),
	)
}

// IsRateLimited 檢查是否仍在限流時段內，時段過後自動恢復
func (r *Registry) IsRateLimited(key string) bool {
	r.mu.RLock()
	until, ok := r.windows[key]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return !r.now().After(until)
}

// RetryAfter 剩餘限流秒數（無條件進位），未限流時為 0
func (r *Registry) RetryAfter(key string) int {
	r.mu.RLock()
	until, ok := r.windows[key]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	remaining := until.Sub(r.now())
	if remaining < 0 {
		return 0
	}
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs == 0 {
		// 恰好到期的瞬間仍視為限流
		secs = 1
	}
	return secs
}

// ClearRateLimit 移除限流記錄
func (r *Registry) ClearRateLimit(key string) {
	r.mu.Lock()
	delete(r.windows, key)
	r.mu.Unlock()
}

// Statuses 所有提供者的狀態，順序與設定一致
func (r *Registry) Statuses() []Status {
	statuses := make([]Status, 0, len(r.providers))
	for _, p := range r.providers {
		d := p.Descriptor()
		s := Status{
			Key:          d.Key,
			Name:         d.DisplayName,
			Model:        d.Model,
			Capabilities: d.Capabilities,
			Status:       StatusAvailable,
		}
		if r.IsRateLimited(d.Key) {
			r.mu.RLock()
			until := r.windows[d.Key]
			r.mu.RUnlock()
			s.Status = StatusRateLimited
			s.RateLimitExpiry = &until
		}
		statuses = append(statuses, s)
	}
	return statuses
}

func (r *Registry) soonestRetryAfter() int {
	soonest := 0
	for _, p := range r.providers {
		secs := r.RetryAfter(p.Descriptor().Key)
		if secs > 0 && (soonest == 0 || secs < soonest) {
			soonest = secs
		}
	}
	return soonest
}
