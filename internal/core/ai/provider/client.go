package provider

import (
	"context"
	"fmt"
	"time"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// httpClient 各提供者共用的 resty 客戶端封裝
type httpClient struct {
	desc   Descriptor
	cfg    config.ProviderConfig
	client *resty.Client
}

func newHTTPClient(desc Descriptor, cfg config.ProviderConfig) httpClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return httpClient{desc: desc, cfg: cfg, client: client}
}

// Descriptor 提供者描述
func (c *httpClient) Descriptor() Descriptor {
	return c.desc
}

// post 發送一次 JSON 請求並解析回應到 out，非 2xx 回傳 *StatusError
func (c *httpClient) post(ctx context.Context, path string, query map[string]string, body, out interface{}) error {
	req := c.client.R().
		SetContext(ctx).
		SetBody(body)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	common.LogDebug("Sending request to AI provider",
		zap.String("provider", c.desc.Key),
		zap.String("model", c.cfg.Model),
	)

	resp, err := req.Post(path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to send request to %s: %w", c.desc.DisplayName, err)
	}

	if !resp.IsSuccess() {
		se := newStatusError(c.desc.DisplayName, resp.StatusCode(), resp.Header(), resp.Body())
		common.LogError("AI provider returned error status",
			zap.String("provider", c.desc.Key),
			zap.Int("status_code", se.StatusCode),
			zap.Int("retry_after", se.RetryAfter),
			zap.String("response", se.Body),
		)
		return se
	}

	if err := common.ParseJSONBytes(resp.Body(), out); err != nil {
		common.LogError("Failed to parse AI provider response",
			zap.String("provider", c.desc.Key),
			zap.Error(err),
			zap.String("response", sanitizeBody(resp.Body())),
		)
		return fmt.Errorf("failed to parse %s response: %w", c.desc.DisplayName, err)
	}
	return nil
}

// emptyContentError 回應沒有內容時的錯誤
func (c *httpClient) emptyContentError() error {
	return fmt.Errorf("empty content in %s response", c.desc.DisplayName)
}
