package provider

import (
	"context"
	"strings"

	"recipe-assistant/internal/infrastructure/config"
)

const anthropicVersion = "2023-06-01"

// Anthropic Claude Messages API 客戶端
type Anthropic struct {
	httpClient
}

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewAnthropic 創建 Anthropic 客戶端
func NewAnthropic(cfg config.ProviderConfig) *Anthropic {
	desc := Descriptor{
		Key:          config.ProviderAnthropic,
		DisplayName:  "Anthropic Claude",
		Model:        cfg.Model,
		Capabilities: AllCapabilities(),
	}
	c := &Anthropic{httpClient: newHTTPClient(desc, cfg)}
	c.client.SetHeader("x-api-key", cfg.APIKey)
	c.client.SetHeader("anthropic-version", anthropicVersion)
	return c
}

// HandleChatMessage 一般對話，history 中的 system 訊息會被略過
func (c *Anthropic) HandleChatMessage(ctx context.Context, message string, history []Message) (string, error) {
	messages := make([]Message, 0, len(history)+1)
	for _, m := range history {
		if m.Role == "system" {
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, Message{Role: "user", Content: message})
	return c.complete(ctx, ChatSystemMessage, messages)
}

// HandleURLExtraction 從網頁文字擷取食譜
func (c *Anthropic) HandleURLExtraction(ctx context.Context, url, pageText string) (string, error) {
	return c.complete(ctx, URLExtractionSystemMessage, []Message{
		{Role: "user", Content: urlExtractionPrompt(url, pageText, c.cfg.ContentLimit)},
	})
}

// HandlePastedRecipeContent 整理貼上的食譜內容
func (c *Anthropic) HandlePastedRecipeContent(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, PastedContentSystemMessage, []Message{
		{Role: "user", Content: pastedContentPrompt(text, c.cfg.ContentLimit)},
	})
}

func (c *Anthropic) complete(ctx context.Context, system string, messages []Message) (string, error) {
	maxTokens := c.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	req := anthropicRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	}

	var resp anthropicResponse
	if err := c.post(ctx, "/messages", nil, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 || strings.TrimSpace(resp.Content[0].Text) == "" {
		return "", c.emptyContentError()
	}
	return resp.Content[0].Text, nil
}
