package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe-assistant/internal/api/middleware"
	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/core/ai/registry"
	"recipe-assistant/internal/core/ai/service"
	"recipe-assistant/internal/core/fetch"
	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reply = "Title: Pancakes\nIngredients:\n- 2 cups flour\nInstructions:\n1. Mix\n2. Fry"

type stubProvider struct {
	key string
	err error
}

func (p *stubProvider) Descriptor() provider.Descriptor {
	return provider.Descriptor{Key: p.key, DisplayName: strings.ToUpper(p.key), Capabilities: provider.AllCapabilities()}
}

func (p *stubProvider) HandleChatMessage(context.Context, string, []provider.Message) (string, error) {
	return "Happy to help!", p.err
}

func (p *stubProvider) HandleURLExtraction(context.Context, string, string) (string, error) {
	return reply, p.err
}

func (p *stubProvider) HandlePastedRecipeContent(context.Context, string) (string, error) {
	return reply, p.err
}

type stubFetcher struct{}

func (stubFetcher) FetchText(_ context.Context, url string) (*fetch.Page, error) {
	return &fetch.Page{URL: url, Status: http.StatusOK,
		Body: `<html><head><meta property="og:image" content="https://cdn.example.com/p.jpg"></head><body><p>pancakes</p></body></html>`}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Version: "test", Debug: true},
		Server:    config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		Providers: config.ProvidersConfig{Default: "auto"},
	}
}

func newTestRouter(t *testing.T, providers ...provider.Provider) (*gin.Engine, *registry.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.New(providers)
	invoker := service.NewInvoker(reg, service.WithSleep(func(context.Context, time.Duration) error { return nil }))
	svc := service.NewService(reg, invoker, nil)
	a := recipe.NewAssistant(stubFetcher{}, svc)

	return SetupRouter(testConfig(), Dependencies{Assistant: a, Registry: reg}), reg
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestExtractEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, &stubProvider{key: "openai"})

	w := do(r, http.MethodPost, "/api/v1/ai/extract", `{"url":"https://www.pancakes.com/best"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "https://cdn.example.com/p.jpg", body["imageUrl"])
	assert.Equal(t, "openai", body["provider"])

	data := body["recipeData"].(map[string]interface{})
	assert.Equal(t, "Pancakes", data["title"])
	assert.Equal(t, "pancakes.com", data["source"])
	assert.Len(t, data["steps"], 2)
}

func TestExtractEndpointMissingURL(t *testing.T) {
	r, _ := newTestRouter(t, &stubProvider{key: "openai"})

	w := do(r, http.MethodPost, "/api/v1/ai/extract", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "URL is required for extraction", decode(t, w)["message"])

	w = do(r, http.MethodPost, "/api/v1/ai/extract", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, &stubProvider{key: "groq"})

	w := do(r, http.MethodPost, "/api/v1/ai/chat",
		`{"message":"any tips?","messages":[{"role":"user","content":"hi"}],"provider":"groq"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Happy to help!", body["message"])
	assert.Nil(t, body["recipeData"])
}

func TestPasteEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, &stubProvider{key: "anthropic"})

	w := do(r, http.MethodPost, "/api/v1/ai/paste", `{"content":"flour, eggs, fry them"}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["recipeData"].(map[string]interface{})
	assert.Equal(t, "Pancakes", data["title"])
}

func TestRateLimitedProviderSetsRetryAfter(t *testing.T) {
	limited := &stubProvider{key: "openai", err: &provider.StatusError{Provider: "OpenAI", StatusCode: 429, RetryAfter: 17}}
	r, reg := newTestRouter(t, limited)

	w := do(r, http.MethodPost, "/api/v1/ai/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "17", w.Header().Get("Retry-After"))
	body := decode(t, w)
	assert.Equal(t, true, body["rateLimited"])
	assert.Equal(t, float64(17), body["retryAfter"])
	assert.True(t, reg.IsRateLimited("openai"))

	// 所有提供者都在限流中
	w = do(r, http.MethodPost, "/api/v1/ai/chat", `{"message":"hello again"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestNoProvidersConfigured(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v1/ai/chat", `{"message":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["message"], "No AI provider is configured")

	w = do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProvidersEndpoint(t *testing.T) {
	r, reg := newTestRouter(t, &stubProvider{key: "google"}, &stubProvider{key: "openai"})
	reg.RecordRateLimit("openai", 30)

	w := do(r, http.MethodGet, "/api/v1/ai/providers", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["available"])

	providers := body["providers"].([]interface{})
	require.Len(t, providers, 2)
	assert.Equal(t, "google", providers[0].(map[string]interface{})["key"])
	assert.Equal(t, registry.StatusRateLimited, providers[1].(map[string]interface{})["status"])
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, &stubProvider{key: "google"})

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/live", "").Code)
}

func TestRateLimiterDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := registry.New([]provider.Provider{&stubProvider{key: "openai"}})
	svc := service.NewService(reg, service.NewInvoker(reg), nil)
	limiter := middleware.NewRateLimiter(1, time.Hour)
	defer limiter.Close()

	r := SetupRouter(testConfig(), Dependencies{
		Assistant: recipe.NewAssistant(stubFetcher{}, svc),
		Registry:  reg,
		Limiter:   limiter,
	})

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/ai/chat", `{"message":"hello"}`).Code)
	w := do(r, http.MethodPost, "/api/v1/ai/chat", `{"message":"hello again"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 健康檢查不受限流
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/live", "").Code)
}
