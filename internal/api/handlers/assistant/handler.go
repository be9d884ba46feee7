package assistant

import (
	"context"
	"net/http"
	"strconv"

	"recipe-assistant/internal/api/middleware"
	"recipe-assistant/internal/core/ai/registry"
	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecipeAssistant 食譜助理的三種流程
type RecipeAssistant interface {
	ExtractFromURL(ctx context.Context, req recipe.ExtractRequest) *recipe.Result
	Chat(ctx context.Context, req recipe.ChatRequest) *recipe.Result
	ProcessPastedContent(ctx context.Context, req recipe.PasteRequest) *recipe.Result
}

// StatusLister 列出提供者狀態
type StatusLister interface {
	Statuses() []registry.Status
}

// Handler 食譜助理 API 處理器
type Handler struct {
	assistant       RecipeAssistant
	providers       StatusLister
	defaultProvider string
}

// NewHandler 創建處理器，defaultProvider 用於請求未指定提供者時
func NewHandler(assistant RecipeAssistant, providers StatusLister, defaultProvider string) *Handler {
	if defaultProvider == "" {
		defaultProvider = registry.Auto
	}
	return &Handler{
		assistant:       assistant,
		providers:       providers,
		defaultProvider: defaultProvider,
	}
}

// HandleExtract POST /ai/extract
func (h *Handler) HandleExtract(c *gin.Context) {
	var req recipe.ExtractRequest
	if !bind(c, &req) {
		return
	}
	req.Provider = h.provider(req.Provider)

	common.LogInfo("開始處理網址擷取請求",
		zap.String("request_id", requestid.Get(c)),
		zap.String("url", req.URL),
		zap.String("provider", req.Provider),
	)
	respond(c, h.assistant.ExtractFromURL(c.Request.Context(), req))
}

// HandleChat POST /ai/chat
func (h *Handler) HandleChat(c *gin.Context) {
	var req recipe.ChatRequest
	if !bind(c, &req) {
		return
	}
	req.Provider = h.provider(req.Provider)

	common.LogInfo("開始處理對話請求",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("history", len(req.History)),
		zap.String("provider", req.Provider),
	)
	respond(c, h.assistant.Chat(c.Request.Context(), req))
}

// HandlePaste POST /ai/paste
func (h *Handler) HandlePaste(c *gin.Context) {
	var req recipe.PasteRequest
	if !bind(c, &req) {
		return
	}
	req.Provider = h.provider(req.Provider)

	common.LogInfo("開始處理貼上內容請求",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("content_length", len(req.Content)),
		zap.String("provider", req.Provider),
	)
	respond(c, h.assistant.ProcessPastedContent(c.Request.Context(), req))
}

// HandleProviders GET /ai/providers
func (h *Handler) HandleProviders(c *gin.Context) {
	statuses := h.providers.Statuses()
	available := 0
	for _, s := range statuses {
		if s.Status == registry.StatusAvailable {
			available++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"providers": statuses,
		"available": available,
		"default":   h.defaultProvider,
	})
}

func (h *Handler) provider(requested string) string {
	if requested == "" {
		return h.defaultProvider
	}
	return requested
}

// bind 解析 JSON 請求，失敗時直接回應 400
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
		c.Set(middleware.ContextKeyOutcome, recipe.OutcomeInvalidInput)
		c.JSON(http.StatusBadRequest, recipe.Result{Message: "Invalid request format"})
		return false
	}
	return true
}

func respond(c *gin.Context, res *recipe.Result) {
	status := res.HTTPStatus()
	c.Set(middleware.ContextKeyOutcome, res.Outcome)
	if res.Provider != "" {
		c.Set(middleware.ContextKeyProvider, res.Provider)
	}
	if res.RateLimited && res.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(res.RetryAfter))
	}
	if status >= http.StatusInternalServerError {
		common.LogError("食譜助理請求失敗",
			zap.String("request_id", requestid.Get(c)),
			zap.String("message", res.Message),
		)
	}
	c.JSON(status, res)
}
