package recipe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/core/ai/service"
	"recipe-assistant/internal/core/fetch"
	"recipe-assistant/internal/core/image"
	"recipe-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// PageFetcher 抓取網頁 HTML
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (*fetch.Page, error)
}

// RecipeGenerator 產生食譜文字的 AI 服務
type RecipeGenerator interface {
	ExtractFromPage(ctx context.Context, providerKey, url, pageText string) (*service.Completion, error)
	Chat(ctx context.Context, providerKey, message string, history []provider.Message) (*service.Completion, error)
	CleanPastedContent(ctx context.Context, providerKey, text string) (*service.Completion, error)
}

// Outcome 請求結果分類
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeInvalidInput Outcome = "invalid_input"
	OutcomeRateLimited  Outcome = "rate_limited"
	OutcomeFailure      Outcome = "failure"
)

// ExtractRequest 網址擷取請求
type ExtractRequest struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
}

// ChatRequest 對話請求，History 為先前的對話
type ChatRequest struct {
	Message  string             `json:"message"`
	History  []provider.Message `json:"messages"`
	Provider string             `json:"provider"`
}

// PasteRequest 貼上內容請求
type PasteRequest struct {
	Content  string `json:"content"`
	Provider string `json:"provider"`
}

// Result 回傳給呼叫端的結果
type Result struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	RecipeData  *RecipeDraft `json:"recipeData"`
	ImageURL    *string      `json:"imageUrl"`
	RateLimited bool         `json:"rateLimited"`
	RetryAfter  int          `json:"retryAfter,omitempty"`
	Provider    string       `json:"provider,omitempty"`
	Outcome     Outcome      `json:"-"`
}

// HTTPStatus 對應的 HTTP 狀態碼
func (r *Result) HTTPStatus() int {
	switch r.Outcome {
	case OutcomeOK:
		return http.StatusOK
	case OutcomeInvalidInput:
		return http.StatusBadRequest
	case OutcomeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Assistant 食譜助理：抓取頁面、挑選圖片、呼叫 AI 並解析回覆
type Assistant struct {
	fetcher         PageFetcher
	generator       RecipeGenerator
	maxContentChars int
}

// AssistantOption 助理選項
type AssistantOption func(*Assistant)

// WithMaxContentChars 設定送往 AI 的頁面文字上限
func WithMaxContentChars(n int) AssistantOption {
	return func(a *Assistant) {
		if n > 0 {
			a.maxContentChars = n
		}
	}
}

// NewAssistant 創建食譜助理
func NewAssistant(fetcher PageFetcher, generator RecipeGenerator, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		fetcher:         fetcher,
		generator:       generator,
		maxContentChars: fetch.DefaultMaxContentChars,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

const applyPrompt = "Would you like me to apply this to your recipe form? You'll be able to make additional edits afterward."

// ExtractFromURL 從網址擷取食譜
func (a *Assistant) ExtractFromURL(ctx context.Context, req ExtractRequest) *Result {
	target := strings.TrimSpace(req.URL)
	if target == "" {
		return invalidInput("URL is required for extraction")
	}
	describe := func(reason string) string {
		return fmt.Sprintf("I couldn't extract a recipe from the URL: %s. "+
			"Please try a different URL or manually enter the recipe details.", reason)
	}

	page, err := a.fetcher.FetchText(ctx, target)
	if err != nil {
		common.LogWarn("Page fetch failed", zap.String("url", target), zap.Error(err))
		return resultFromError(err, describe)
	}

	title, text := fetch.Readable(page.Body, target, a.maxContentChars)
	selection := image.Score(page.Body, target, title)
	imageURL := selection.OptimizedURL

	completion, err := a.generator.ExtractFromPage(ctx, req.Provider, target, text)
	if err != nil {
		return resultFromError(err, describe)
	}

	draft := ParseRecipeText(completion.Content)
	draft.ImageURL = imageURL
	if draft.Source == "" {
		draft.Source = sourceHost(target)
	}

	var imageRef *string
	imageNote := ""
	if imageURL != "" {
		imageRef = &imageURL
		imageNote = "I also found an image that I'll include with your recipe."
	}

	common.LogInfo("Recipe extracted from URL",
		zap.String("url", target),
		zap.String("provider", completion.Provider.Key),
		zap.Bool("cache_hit", completion.CacheHit),
		zap.Int("image_candidates", len(selection.Candidates)),
	)

	return &Result{
		Success: true,
		Message: fmt.Sprintf("I've extracted the recipe from %s. Here's what I found:\n\n%s\n\n%s\n%s",
			target, completion.Content, imageNote, applyPrompt),
		RecipeData: draft,
		ImageURL:   imageRef,
		Provider:   completion.Provider.Key,
		Outcome:    OutcomeOK,
	}
}

// Chat 對話。訊息為網址時改走擷取，像食譜內容時改走貼上流程
func (a *Assistant) Chat(ctx context.Context, req ChatRequest) *Result {
	if strings.TrimSpace(req.Message) == "" {
		return invalidInput("Message is required for chat")
	}

	if target := urlInMessage(req.Message); target != "" {
		return a.ExtractFromURL(ctx, ExtractRequest{URL: target, Provider: req.Provider})
	}
	if LooksLikeRecipe(req.Message) {
		return a.ProcessPastedContent(ctx, PasteRequest{Content: req.Message, Provider: req.Provider})
	}

	completion, err := a.generator.Chat(ctx, req.Provider, req.Message, req.History)
	if err != nil {
		return resultFromError(err, func(reason string) string {
			return fmt.Sprintf("I'm sorry, but I encountered an error while processing your request: %s. "+
				"Please try again.", reason)
		})
	}

	res := &Result{
		Success:  true,
		Message:  completion.Content,
		Provider: completion.Provider.Key,
		Outcome:  OutcomeOK,
	}
	if HasCompleteRecipe(completion.Content) {
		res.RecipeData = ParseRecipeText(completion.Content)
	}
	return res
}

// ProcessPastedContent 整理貼上的食譜內容
func (a *Assistant) ProcessPastedContent(ctx context.Context, req PasteRequest) *Result {
	if strings.TrimSpace(req.Content) == "" {
		return invalidInput("Content is required for extraction")
	}

	completion, err := a.generator.CleanPastedContent(ctx, req.Provider, req.Content)
	if err != nil {
		return resultFromError(err, func(reason string) string {
			return fmt.Sprintf("I couldn't extract a recipe from the pasted content: %s. "+
				"Please try again with different content or manually enter the recipe details.", reason)
		})
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("I've extracted the recipe from your pasted content. Here's what I found:\n\n%s\n\n%s",
			completion.Content, applyPrompt),
		RecipeData: ParseRecipeText(completion.Content),
		Provider:   completion.Provider.Key,
		Outcome:    OutcomeOK,
	}
}

func invalidInput(message string) *Result {
	return &Result{Message: message, Outcome: OutcomeInvalidInput}
}

// resultFromError 依錯誤代碼分類；回傳給使用者的訊息不含提供者原始回應
func resultFromError(err error, describe func(reason string) string) *Result {
	ce, ok := common.AsCustomError(err)
	if !ok {
		return &Result{Message: describe(err.Error()), Outcome: OutcomeFailure}
	}

	switch {
	case ce.Code == common.ErrCodeRateLimited,
		ce.Code == common.ErrCodeProviderUnavailable && ce.RetryAfter > 0:
		retryAfter := ce.RetryAfter
		if retryAfter <= 0 {
			retryAfter = 1
		}
		return &Result{
			Message:     ce.Message,
			RateLimited: true,
			RetryAfter:  retryAfter,
			Outcome:     OutcomeRateLimited,
		}
	case ce.Code == common.ErrCodeInvalidRequest:
		return &Result{Message: describe(ce.Message), Outcome: OutcomeInvalidInput}
	default:
		return &Result{Message: describe(ce.Message), Outcome: OutcomeFailure}
	}
}

var messageURL = regexp.MustCompile(`(?i)^https?://[\w\-]+(\.[\w\-]+)+\S*`)

// urlInMessage 訊息以網址開頭時取出該網址
func urlInMessage(message string) string {
	return messageURL.FindString(strings.TrimSpace(message))
}

// sourceHost 去掉 www. 的主機名稱
func sourceHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
