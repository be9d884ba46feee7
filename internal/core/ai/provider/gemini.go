package provider

import (
	"context"
	"net/url"
	"strings"

	"recipe-assistant/internal/infrastructure/config"
)

// Gemini Google generateContent API 客戶端
type Gemini struct {
	httpClient
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewGemini 創建 Gemini 客戶端
func NewGemini(cfg config.ProviderConfig) *Gemini {
	desc := Descriptor{
		Key:          config.ProviderGoogle,
		DisplayName:  "Google Gemini",
		Model:        cfg.Model,
		Capabilities: AllCapabilities(),
	}
	return &Gemini{httpClient: newHTTPClient(desc, cfg)}
}

// HandleChatMessage 一般對話，system 提示併入第一則使用者訊息
func (c *Gemini) HandleChatMessage(ctx context.Context, message string, history []Message) (string, error) {
	contents := []geminiContent{userContent(ChatSystemMessage)}
	for _, m := range history {
		switch m.Role {
		case "assistant", "model":
			contents = append(contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		case "user":
			contents = append(contents, userContent(m.Content))
		}
	}
	contents = append(contents, userContent(message))
	return c.generate(ctx, contents)
}

// HandleURLExtraction 從網頁文字擷取食譜
func (c *Gemini) HandleURLExtraction(ctx context.Context, url, pageText string) (string, error) {
	prompt := URLExtractionSystemMessage + "\n\n" + urlExtractionPrompt(url, pageText, c.cfg.ContentLimit)
	return c.generate(ctx, []geminiContent{userContent(prompt)})
}

// HandlePastedRecipeContent 整理貼上的食譜內容
func (c *Gemini) HandlePastedRecipeContent(ctx context.Context, text string) (string, error) {
	prompt := PastedContentSystemMessage + "\n\n" + pastedContentPrompt(text, c.cfg.ContentLimit)
	return c.generate(ctx, []geminiContent{userContent(prompt)})
}

func (c *Gemini) generate(ctx context.Context, contents []geminiContent) (string, error) {
	req := geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: c.cfg.MaxTokens,
		},
	}

	var resp geminiResponse
	path := "/models/" + url.PathEscape(c.cfg.Model) + ":generateContent"
	if err := c.post(ctx, path, map[string]string{"key": c.cfg.APIKey}, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", c.emptyContentError()
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", c.emptyContentError()
	}
	return text, nil
}

func userContent(text string) geminiContent {
	return geminiContent{Role: "user", Parts: []geminiPart{{Text: text}}}
}
