package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 預設值
const (
	DefaultTimeout      = 15 * time.Second
	DefaultUserAgent    = "Mozilla/5.0 (compatible; RecipeAssistant/1.0)"
	DefaultMaxBodyBytes = 5 << 20
)

// Page 抓取到的網頁
type Page struct {
	URL     string
	Status  int
	Headers http.Header
	Body    string
}

// Fetcher 網頁抓取客戶端
type Fetcher struct {
	client       *resty.Client
	maxBodyBytes int64
}

// NewFetcher 依設定創建抓取客戶端，零值欄位使用預設值
func NewFetcher(cfg config.FetchConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	return &Fetcher{client: client, maxBodyBytes: maxBody}
}

// FetchText 以 GET 抓取網頁並回傳文字內容，非 2xx 時回傳 FETCH_FAILED 錯誤
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (*Page, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, common.NewError(common.ErrCodeFetchFailed,
				"timed out fetching page", http.StatusGatewayTimeout, ctxErr)
		}
		return nil, common.NewError(common.ErrCodeFetchFailed,
			"failed to fetch page", http.StatusBadGateway, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if !resp.IsSuccess() {
		common.LogWarn("Page fetch returned error status",
			zap.String("url", rawURL),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, common.NewError(common.ErrCodeFetchFailed,
			fmt.Sprintf("failed to fetch URL: %d %s", resp.StatusCode(), http.StatusText(resp.StatusCode())),
			http.StatusBadGateway, nil)
	}

	body, err := io.ReadAll(io.LimitReader(raw, f.maxBodyBytes))
	if err != nil {
		return nil, common.NewError(common.ErrCodeFetchFailed,
			"failed to read page body", http.StatusBadGateway, err)
	}

	common.LogDebug("Fetched page",
		zap.String("url", rawURL),
		zap.Int("status_code", resp.StatusCode()),
		zap.Int("bytes", len(body)),
	)

	return &Page{
		URL:     rawURL,
		Status:  resp.StatusCode(),
		Headers: resp.Header(),
		Body:    string(body),
	}, nil
}

// ValidateURL 只接受 http 與 https 的絕對網址
func ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return common.NewError(common.ErrCodeInvalidRequest, "invalid URL", http.StatusBadRequest, err)
	}
	return nil
}
