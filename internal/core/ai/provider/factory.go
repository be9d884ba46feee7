package provider

import (
	"strings"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// 常見的 API Key 前綴，不符合時只記錄警告
var keyPrefixes = map[string][]string{
	config.ProviderGoogle:    {"AIza"},
	config.ProviderOpenAI:    {"sk-"},
	config.ProviderGroq:      {"gsk_"},
	config.ProviderAnthropic: {"sk-ant-"},
}

// FromConfig 依 providers.order 建立已設定 API Key 的提供者
func FromConfig(cfg *config.Config) []Provider {
	providers := make([]Provider, 0, len(cfg.Providers.Order))
	seen := make(map[string]bool)

	for _, key := range cfg.Providers.Order {
		if seen[key] {
			continue
		}
		seen[key] = true

		pc, ok := cfg.Providers.Get(key)
		if !ok || strings.TrimSpace(pc.APIKey) == "" {
			continue
		}
		warnOnKeyPrefix(key, pc.APIKey)

		p := New(key, pc)
		if p == nil {
			continue
		}
		providers = append(providers, p)
	}

	common.LogInfo("AI providers configured", zap.Int("count", len(providers)))
	return providers
}

// New 依鍵值建立單一提供者，未知鍵值回傳 nil
func New(key string, pc config.ProviderConfig) Provider {
	switch key {
	case config.ProviderGoogle:
		return NewGemini(pc)
	case config.ProviderAnthropic:
		return NewAnthropic(pc)
	case config.ProviderOpenAI:
		return NewChatCompletions(key, "OpenAI", pc, nil)
	case config.ProviderGroq:
		return NewChatCompletions(key, "Groq", pc, nil)
	case config.ProviderDeepSeek:
		return NewChatCompletions(key, "DeepSeek", pc, nil)
	case config.ProviderOpenRouter:
		return NewChatCompletions(key, "OpenRouter", pc, map[string]string{
			"HTTP-Referer": "https://recipe-assistant.local",
			"X-Title":      "Recipe Assistant",
		})
	}
	return nil
}

func warnOnKeyPrefix(key, apiKey string) {
	prefixes, ok := keyPrefixes[key]
	if !ok {
		return
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(apiKey, prefix) {
			return
		}
	}
	common.LogWarn("API key has unexpected format",
		zap.String("provider", key),
		zap.String("api_key", config.MaskAPIKey(apiKey)),
	)
}
