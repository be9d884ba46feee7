package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code       string // 錯誤代碼
	Message    string // 錯誤信息
	Err        error  // 原始錯誤
	Status     int    // HTTP 狀態碼
	RetryAfter int    // 建議重試秒數（僅限流時有值）
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 返回原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// NewRateLimitedError 創建帶有重試提示的限流錯誤
func NewRateLimitedError(message string, retryAfter int, err error) *CustomError {
	e := NewError(ErrCodeRateLimited, message, http.StatusTooManyRequests, err)
	e.RetryAfter = retryAfter
	return e
}

// ErrorCode 取得錯誤鏈中第一個 CustomError 的代碼
func ErrorCode(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCode 檢查錯誤鏈中是否含有指定代碼
func IsCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}

// AsCustomError 取得錯誤鏈中的 CustomError
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	ok := errors.As(err, &ce)
	return ce, ok
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429
	ErrCodeRateLimited     = "RATE_LIMITED"      // 429，由 AI 提供者回報

	// 服務器錯誤 (5xx)
	ErrCodeInternalError       = "INTERNAL_ERROR"       // 500
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE" // 500
	ErrCodeProviderError       = "PROVIDER_ERROR"       // 500
	ErrCodeFetchFailed         = "FETCH_FAILED"         // 500
	ErrCodeGatewayTimeout      = "GATEWAY_TIMEOUT"      // 504
)

// ErrCacheFull 快取已滿
var ErrCacheFull = NewError("CACHE_FULL", "cache is full", http.StatusServiceUnavailable, nil)
