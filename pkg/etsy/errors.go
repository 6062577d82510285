package etsy

import (
	"fmt"
	"net/http"
)

// CredentialExpiredError 凭证已过期且无法刷新，需要重新授权
type CredentialExpiredError struct {
	StoreID int64
}

func (e *CredentialExpiredError) Error() string {
	return fmt.Sprintf("店铺 %d 授权已过期，请重新连接 Etsy", e.StoreID)
}

// TokenRefreshError 刷新 Token 失败，原凭证保持不变
type TokenRefreshError struct {
	StoreID    int64
	StatusCode int // 0 表示未收到响应
	Err        error
}

func (e *TokenRefreshError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("店铺 %d 刷新 Token 失败 (Status %d): %v", e.StoreID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("店铺 %d 刷新 Token 失败: %v", e.StoreID, e.Err)
}

func (e *TokenRefreshError) Unwrap() error { return e.Err }

// APIError Etsy 返回非 2xx
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Etsy API error: %d - %s", e.StatusCode, e.Body)
}

// Retryable 429 与 5xx 视为可重试
func (e *APIError) Retryable() bool {
	return isRetryableStatus(e.StatusCode)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
