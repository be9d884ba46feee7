package health

import (
	"net/http"
	"runtime"
	"time"

	"recipe-assistant/internal/core/ai/registry"
	"recipe-assistant/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Runtime   map[string]interface{} `json:"runtime"`
	Providers *ProviderSummary       `json:"providers"`
}

// ProviderSummary 提供者概況
type ProviderSummary struct {
	Configured  int `json:"configured"`
	Available   int `json:"available"`
	RateLimited int `json:"rateLimited"`
}

// StatusLister 列出提供者狀態
type StatusLister interface {
	Statuses() []registry.Status
}

// Handler 健康檢查處理器
type Handler struct {
	version   string
	providers StatusLister
	startedAt time.Time
}

// NewHandler 創建健康檢查處理器
func NewHandler(version string, providers StatusLister) *Handler {
	return &Handler{
		version:   version,
		providers: providers,
		startedAt: time.Now(),
	}
}

func (h *Handler) summary() *ProviderSummary {
	s := &ProviderSummary{}
	for _, st := range h.providers.Statuses() {
		s.Configured++
		if st.Status == registry.StatusRateLimited {
			s.RateLimited++
		} else {
			s.Available++
		}
	}
	return s
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	summary := h.summary()
	status := "ok"
	if summary.Available == 0 {
		status = "degraded"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   h.version,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Providers: summary,
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("status", status),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 至少有一個提供者可用時才就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	summary := h.summary()
	if summary.Available == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not_ready",
			"providers": summary,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"providers": summary,
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
