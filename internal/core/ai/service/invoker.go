package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// RateLimitRecorder 記錄提供者限流時段
type RateLimitRecorder interface {
	RecordRateLimit(providerKey string, retryAfterSeconds int)
}

// RetryAttempt 單次重試的資訊，Attempt 從 0 起算
type RetryAttempt struct {
	ProviderKey string
	Attempt     int
	Delay       time.Duration
	Cause       error
}

// Invoker 以指數退避重試單一提供者的呼叫。
// 429 記錄限流後立即中止；500/502/503 重試；其他錯誤直接回傳。
type Invoker struct {
	limits            RateLimitRecorder
	maxRetries        int
	baseDelay         time.Duration
	jitter            float64
	defaultRetryAfter time.Duration
	sleep             func(ctx context.Context, d time.Duration) error
	random            func() float64
	onRetry           func(RetryAttempt)
}

// InvokerOption 設定 Invoker
type InvokerOption func(*Invoker)

// WithMaxRetries 最大重試次數（不含第一次）
func WithMaxRetries(n int) InvokerOption {
	return func(i *Invoker) {
		if n >= 0 {
			i.maxRetries = n
		}
	}
}

// WithBaseDelay 第一次重試前的等待時間
func WithBaseDelay(d time.Duration) InvokerOption {
	return func(i *Invoker) {
		if d > 0 {
			i.baseDelay = d
		}
	}
}

// WithJitter 隨機抖動比例，範圍 [0, 1]
func WithJitter(f float64) InvokerOption {
	return func(i *Invoker) {
		if f >= 0 && f <= 1 {
			i.jitter = f
		}
	}
}

// WithDefaultRetryAfter 429 未帶 Retry-After 時的限流時長
func WithDefaultRetryAfter(d time.Duration) InvokerOption {
	return func(i *Invoker) {
		if d > 0 {
			i.defaultRetryAfter = d
		}
	}
}

// WithSleep 替換等待函式（測試用）
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) InvokerOption {
	return func(i *Invoker) {
		i.sleep = sleep
	}
}

// WithRandom 替換亂數來源，回傳值需在 [0, 1)
func WithRandom(random func() float64) InvokerOption {
	return func(i *Invoker) {
		i.random = random
	}
}

// OnRetry 每次重試前呼叫
func OnRetry(fn func(RetryAttempt)) InvokerOption {
	return func(i *Invoker) {
		i.onRetry = fn
	}
}

// NewInvoker 創建 Invoker
func NewInvoker(limits RateLimitRecorder, opts ...InvokerOption) *Invoker {
	i := &Invoker{
		limits:            limits,
		maxRetries:        3,
		baseDelay:         time.Second,
		jitter:            0.3,
		defaultRetryAfter: 60 * time.Second,
		sleep:             sleepContext,
		random:            rand.Float64,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Invoke 依序呼叫 call，最多 maxRetries+1 次，不會並行
func (i *Invoker) Invoke(ctx context.Context, providerKey string, call func(ctx context.Context) (string, error)) (string, error) {
	for attempt := 0; ; attempt++ {
		result, err := call(ctx)
		if err == nil {
			return result, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			common.LogWarn("AI request cancelled",
				zap.String("provider", providerKey),
				zap.Int("attempt", attempt),
				zap.Error(ctxErr),
			)
			return "", common.NewError(common.ErrCodeGatewayTimeout, "AI request timed out or was cancelled",
				http.StatusGatewayTimeout, err)
		}

		status := provider.StatusCode(err)
		switch {
		case status == http.StatusTooManyRequests:
			retryAfter := provider.RetryAfterSeconds(err)
			if retryAfter <= 0 {
				retryAfter = int(math.Ceil(i.defaultRetryAfter.Seconds()))
			}
			if i.limits != nil {
				i.limits.RecordRateLimit(providerKey, retryAfter)
			}
			return "", common.NewRateLimitedError(
				fmt.Sprintf("AI provider %s is rate limited. Please try again in %d seconds.", providerKey, retryAfter),
				retryAfter, err)

		case !isRetryable(status):
			return "", err
		}

		if attempt >= i.maxRetries {
			common.LogError("AI request failed after retries",
				zap.String("provider", providerKey),
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return "", common.NewError(common.ErrCodeProviderError,
				fmt.Sprintf("AI provider %s failed after %d attempts", providerKey, attempt+1),
				http.StatusInternalServerError, err)
		}

		delay := i.Delay(attempt)
		common.LogWarn("Retrying AI request",
			zap.String("provider", providerKey),
			zap.Int("attempt", attempt),
			zap.Int("status_code", status),
			zap.Duration("delay", delay),
		)
		if i.onRetry != nil {
			i.onRetry(RetryAttempt{ProviderKey: providerKey, Attempt: attempt, Delay: delay, Cause: err})
		}
		if err := i.sleep(ctx, delay); err != nil {
			return "", common.NewError(common.ErrCodeGatewayTimeout, "AI request timed out or was cancelled",
				http.StatusGatewayTimeout, err)
		}
	}
}

// Delay 第 attempt 次重試的等待時間：base * 2^attempt * (1 + random*jitter)
func (i *Invoker) Delay(attempt int) time.Duration {
	backoff := float64(i.baseDelay) * math.Pow(2, float64(attempt))
	return time.Duration(backoff * (1 + i.random()*i.jitter))
}

func isRetryable(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return true
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
