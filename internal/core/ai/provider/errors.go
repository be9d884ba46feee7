package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError 提供者回傳非 2xx 狀態時的錯誤。
// Body 只用於日誌，Error() 不包含原始回應內容。
type StatusError struct {
	Provider   string
	StatusCode int
	RetryAfter int // 秒，0 表示未提供
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d)", e.Provider, e.StatusCode)
}

// StatusCode 取得錯誤鏈中的 HTTP 狀態碼，沒有則回傳 0
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// RetryAfterSeconds 取得錯誤鏈中的 Retry-After 提示，沒有則回傳 0
func RetryAfterSeconds(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}

// ParseRetryAfter 解析 Retry-After 標頭（秒數或 HTTP 日期）
func ParseRetryAfter(value string, now time.Time) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return int(secs + 0.999)
	}
	if t, err := http.ParseTime(value); err == nil {
		d := t.Sub(now)
		if d <= 0 {
			return 0
		}
		return int((d + time.Second - 1) / time.Second)
	}
	return 0
}

// newStatusError 由回應組出 StatusError，body 截斷後保留
func newStatusError(provider string, status int, header http.Header, body []byte) *StatusError {
	return &StatusError{
		Provider:   provider,
		StatusCode: status,
		RetryAfter: ParseRetryAfter(header.Get("Retry-After"), time.Now()),
		Body:       sanitizeBody(body),
	}
}

// sanitizeBody 清理響應內容，移除圖片資料並限制長度
func sanitizeBody(body []byte) string {
	s := string(body)
	if strings.Contains(s, "data:image/") || (len(s) > 100 && strings.Contains(s, "base64")) {
		return "[IMAGE_DATA_REMOVED]"
	}
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
