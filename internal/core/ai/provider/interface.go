package provider

import (
	"context"
)

// Message 表示與 AI 模型的對話消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Capabilities 提供者支援的呼叫類型
type Capabilities struct {
	Chat          bool `json:"chat"`
	URLExtraction bool `json:"urlExtraction"`
	PastedContent bool `json:"pastedContent"`
}

// Descriptor 提供者描述，Key 為穩定識別碼
type Descriptor struct {
	Key          string       `json:"key"`
	DisplayName  string       `json:"displayName"`
	Model        string       `json:"model,omitempty"`
	Capabilities Capabilities `json:"capabilities"`
}

// Operation 呼叫類型
type Operation string

const (
	OperationChat          Operation = "chat"
	OperationURLExtraction Operation = "url_extraction"
	OperationPastedContent Operation = "pasted_content"
)

// Supports 檢查是否支援指定呼叫類型
func (c Capabilities) Supports(op Operation) bool {
	switch op {
	case OperationChat:
		return c.Chat
	case OperationURLExtraction:
		return c.URLExtraction
	case OperationPastedContent:
		return c.PastedContent
	}
	return false
}

// AllCapabilities 三種呼叫類型都支援
func AllCapabilities() Capabilities {
	return Capabilities{Chat: true, URLExtraction: true, PastedContent: true}
}

// Provider 定義 AI 提供者介面。
// 每個方法只對提供者做一次請求，重試由呼叫端負責；
// 失敗時回傳的錯誤應可透過 StatusCode 取得 HTTP 狀態碼。
type Provider interface {
	// Descriptor 提供者設定與能力
	Descriptor() Descriptor

	// HandleChatMessage 一般對話
	HandleChatMessage(ctx context.Context, message string, history []Message) (string, error)

	// HandleURLExtraction 從網頁文字擷取食譜
	HandleURLExtraction(ctx context.Context, url, pageText string) (string, error)

	// HandlePastedRecipeContent 整理貼上的食譜內容
	HandlePastedRecipeContent(ctx context.Context, text string) (string, error)
}
