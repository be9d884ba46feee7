package provider

import (
	"context"
	"strings"

	"recipe-assistant/internal/infrastructure/config"
)

// ChatCompletions OpenAI 相容的 /chat/completions 客戶端（OpenAI、Groq、DeepSeek、OpenRouter）
type ChatCompletions struct {
	httpClient
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// NewChatCompletions 創建 OpenAI 相容客戶端，headers 為額外請求標頭
func NewChatCompletions(key, displayName string, cfg config.ProviderConfig, headers map[string]string) *ChatCompletions {
	desc := Descriptor{
		Key:          key,
		DisplayName:  displayName,
		Model:        cfg.Model,
		Capabilities: AllCapabilities(),
	}
	c := &ChatCompletions{httpClient: newHTTPClient(desc, cfg)}
	c.client.SetAuthToken(cfg.APIKey)
	c.client.SetHeaders(headers)
	return c
}

// HandleChatMessage 一般對話
func (c *ChatCompletions) HandleChatMessage(ctx context.Context, message string, history []Message) (string, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: ChatSystemMessage})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: message})
	return c.complete(ctx, messages)
}

// HandleURLExtraction 從網頁文字擷取食譜
func (c *ChatCompletions) HandleURLExtraction(ctx context.Context, url, pageText string) (string, error) {
	return c.complete(ctx, []Message{
		{Role: "system", Content: URLExtractionSystemMessage},
		{Role: "user", Content: urlExtractionPrompt(url, pageText, c.cfg.ContentLimit)},
	})
}

// HandlePastedRecipeContent 整理貼上的食譜內容
func (c *ChatCompletions) HandlePastedRecipeContent(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, []Message{
		{Role: "system", Content: PastedContentSystemMessage},
		{Role: "user", Content: pastedContentPrompt(text, c.cfg.ContentLimit)},
	})
}

func (c *ChatCompletions) complete(ctx context.Context, messages []Message) (string, error) {
	req := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0.7,
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", nil, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", c.emptyContentError()
	}
	return resp.Choices[0].Message.Content, nil
}
