package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-assistant/internal/api"
	"recipe-assistant/internal/api/middleware"
	"recipe-assistant/internal/core/ai/cache"
	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/core/ai/registry"
	"recipe-assistant/internal/core/ai/service"
	"recipe-assistant/internal/core/fetch"
	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.Strings("provider_order", cfg.Providers.Order),
		zap.String("default_provider", cfg.Providers.Default),
		zap.String("openai_api_key", config.MaskAPIKey(cfg.Providers.OpenAI.APIKey)),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	// 初始化提供者
	providers := provider.FromConfig(cfg)
	if len(providers) == 0 {
		common.LogWarn("No AI provider API key configured; AI requests will fail until one is set")
	}
	reg := registry.New(providers)

	// 初始化快取
	responseCache, err := cache.New(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if responseCache != nil {
		defer responseCache.Close()
	}

	invoker := service.NewInvoker(reg,
		service.WithMaxRetries(cfg.Retry.MaxRetries),
		service.WithBaseDelay(cfg.Retry.BaseDelay),
		service.WithJitter(cfg.Retry.Jitter),
		service.WithDefaultRetryAfter(cfg.Retry.DefaultRetryAfter),
	)
	aiService := service.NewService(reg, invoker, responseCache)

	assistant := recipe.NewAssistant(
		fetch.NewFetcher(cfg.Fetch),
		aiService,
		recipe.WithMaxContentChars(cfg.Fetch.MaxContentChars),
	)

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	dedup.StartCleanup(10 * time.Minute)
	defer dedup.Close()

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		limiter.StartCleanup(10 * time.Minute)
		defer limiter.Close()
	}

	// 設置路由
	router := api.SetupRouter(cfg, api.Dependencies{
		Assistant: assistant,
		Registry:  reg,
		Dedup:     dedup,
		Limiter:   limiter,
	})

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Int("providers", reg.Len()),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
