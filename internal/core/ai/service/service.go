package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipe-assistant/internal/core/ai/cache"
	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// ProviderSelector 依鍵值選擇提供者
type ProviderSelector interface {
	SelectProvider(key string) (provider.Provider, error)
}

// Completion AI 回應
type Completion struct {
	Provider provider.Descriptor
	Content  string
	CacheHit bool
}

// Service AI 服務：選擇提供者、查快取、透過 Invoker 呼叫
type Service struct {
	selector ProviderSelector
	invoker  *Invoker
	cache    cache.Cache
}

// NewService 創建 AI 服務，cache 可為 nil
func NewService(selector ProviderSelector, invoker *Invoker, c cache.Cache) *Service {
	return &Service{
		selector: selector,
		invoker:  invoker,
		cache:    c,
	}
}

// ExtractFromPage 從網頁文字擷取食譜
func (s *Service) ExtractFromPage(ctx context.Context, providerKey, url, pageText string) (*Completion, error) {
	return s.run(ctx, provider.OperationURLExtraction, providerKey, url+"\n"+pageText, true,
		func(p provider.Provider) func(context.Context) (string, error) {
			return func(ctx context.Context) (string, error) {
				return p.HandleURLExtraction(ctx, url, pageText)
			}
		})
}

// Chat 一般對話，不使用快取
func (s *Service) Chat(ctx context.Context, providerKey, message string, history []provider.Message) (*Completion, error) {
	return s.run(ctx, provider.OperationChat, providerKey, "", false,
		func(p provider.Provider) func(context.Context) (string, error) {
			return func(ctx context.Context) (string, error) {
				return p.HandleChatMessage(ctx, message, history)
			}
		})
}

// CleanPastedContent 整理貼上的食譜內容
func (s *Service) CleanPastedContent(ctx context.Context, providerKey, text string) (*Completion, error) {
	return s.run(ctx, provider.OperationPastedContent, providerKey, text, true,
		func(p provider.Provider) func(context.Context) (string, error) {
			return func(ctx context.Context) (string, error) {
				return p.HandlePastedRecipeContent(ctx, text)
			}
		})
}

func (s *Service) run(
	ctx context.Context,
	op provider.Operation,
	providerKey, cacheKey string,
	cacheable bool,
	bind func(provider.Provider) func(context.Context) (string, error),
) (*Completion, error) {
	p, err := s.selector.SelectProvider(providerKey)
	if err != nil {
		return nil, err
	}
	desc := p.Descriptor()
	if !desc.Capabilities.Supports(op) {
		return nil, common.NewError(common.ErrCodeProviderUnavailable,
			fmt.Sprintf("AI provider %s does not support %s", desc.DisplayName, op),
			http.StatusInternalServerError, nil)
	}

	namespace := string(op) + ":" + desc.Key
	useCache := cacheable && s.cache != nil
	if useCache {
		val, err := s.cache.Get(ctx, namespace, cacheKey)
		switch {
		case err == nil && strings.TrimSpace(val) != "":
			return &Completion{Provider: desc, Content: val, CacheHit: true}, nil
		case err != nil && !errors.Is(err, cache.ErrMiss):
			common.LogWarn("Cache lookup failed", zap.String("namespace", namespace), zap.Error(err))
		}
	}

	start := time.Now()
	content, err := s.invoker.Invoke(ctx, desc.Key, bind(p))
	common.LogAICall(desc.Key, string(op), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := s.cache.Set(ctx, namespace, cacheKey, content); err != nil {
			common.LogWarn("Cache store failed", zap.String("namespace", namespace), zap.Error(err))
		}
	}

	return &Completion{Provider: desc, Content: content}, nil
}
