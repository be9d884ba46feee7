package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"recipe-assistant/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter 以用戶端 IP 區分的令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	window   time.Duration
	visitors map[string]*visitor
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter 每個用戶端在 window 內最多 requests 次請求
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		window:   window,
		visitors: make(map[string]*visitor),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// StartCleanup 定期移除閒置的用戶端，呼叫 Close 停止
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stop:
				return
			}
		}
	}()
}

// cleanup 閒置超過 window 的桶已回滿，移除後重建不影響限流結果
func (rl *RateLimiter) cleanup() int {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.window {
			delete(rl.visitors, k)
			removed++
		}
	}
	if removed > 0 {
		common.LogDebug("Rate limiter cleanup",
			zap.Int("removed", removed),
			zap.Int("remaining", len(rl.visitors)),
		)
	}
	return removed
}

// Close 停止清理 goroutine
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// Allow 檢查是否允許請求，不允許時回傳建議等待秒數
func (rl *RateLimiter) Allow(key string) (bool, int) {
	now := rl.now()
	l := rl.limiter(key, now)
	r := l.ReserveN(now, 1)
	if !r.OK() {
		return false, int(rl.window.Seconds())
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	r.CancelAt(now)
	return false, int(math.Ceil(delay.Seconds()))
}

// Middleware 限流中間件
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := rl.Allow(c.ClientIP())
		if !ok {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"code":        common.ErrCodeTooManyRequests,
				"message":     "Too many requests",
				"rateLimited": true,
				"retryAfter":  retryAfter,
			})
			return
		}

		c.Next()
	}
}
