package middleware

import (
	"net/http"
	"time"

	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 處理器寫入 gin.Context 的欄位，供存取日誌使用
const (
	ContextKeyProvider = "assistant.provider"
	ContextKeyOutcome  = "assistant.outcome"
)

// Logger 存取日誌，附帶處理器回報的提供者與結果分類
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("route", c.FullPath()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestid.Get(c)),
		}
		if p := c.GetString(ContextKeyProvider); p != "" {
			fields = append(fields, zap.String("provider", p))
		}
		outcome, _ := c.Get(ContextKeyOutcome)
		if o, ok := outcome.(recipe.Outcome); ok {
			fields = append(fields, zap.String("outcome", string(o)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			common.LogError("伺服器錯誤", fields...)
		case outcome == recipe.OutcomeRateLimited:
			common.LogWarn("AI 提供者限流", fields...)
		case status >= http.StatusBadRequest:
			common.LogWarn("用戶端錯誤", append(fields, zap.String("user-agent", c.Request.UserAgent()))...)
		default:
			common.LogInfo("請求完成", fields...)
		}
	}
}

// Recovery 攔截 panic，以食譜助理的結果格式回應 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				common.LogError("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("request_id", requestid.Get(c)),
					zap.Stack("stack"),
				)

				c.Set(ContextKeyOutcome, recipe.OutcomeFailure)
				c.AbortWithStatusJSON(http.StatusInternalServerError, recipe.Result{
					Message: "Something went wrong while processing your request. Please try again.",
					Outcome: recipe.OutcomeFailure,
				})
			}
		}()

		c.Next()
	}
}
