package api

import (
	"time"

	"recipe-assistant/internal/api/handlers/assistant"
	"recipe-assistant/internal/api/handlers/health"
	"recipe-assistant/internal/api/middleware"
	"recipe-assistant/internal/core/ai/registry"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服務
type Dependencies struct {
	Assistant assistant.RecipeAssistant
	Registry  *registry.Registry
	Dedup     *middleware.Deduplicator
	Limiter   *middleware.RateLimiter
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, deps.Registry)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	if deps.Limiter != nil {
		api.Use(deps.Limiter.Middleware())
	}
	if deps.Dedup != nil {
		api.Use(deps.Dedup.Middleware())
	}

	h := assistant.NewHandler(deps.Assistant, deps.Registry, cfg.Providers.Default)
	aiGroup := api.Group("/ai")
	{
		aiGroup.POST("/extract", h.HandleExtract)
		aiGroup.POST("/chat", h.HandleChat)
		aiGroup.POST("/paste", h.HandlePaste)
		aiGroup.GET("/providers", h.HandleProviders)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Int("providers", deps.Registry.Len()),
		zap.Bool("rate_limit", deps.Limiter != nil),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
