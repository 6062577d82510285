package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"etsy_dashboard/internal/service"
	"etsy_dashboard/pkg/etsy"
)

// ==================== 参数解析 ====================

func parseID(ctx *gin.Context, key string) int64 {
	idStr := ctx.Param(key)
	var id int64
	if ok, err := parseUint(idStr, &id); err != nil || !ok || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 ID"})
		return 0
	}
	return id
}

func parseUint(s string, v *int64) (bool, error) {
	if s == "" {
		return false, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return false, err
	}
	*v = n
	return true, nil
}

// queryInt64 可选查询参数，缺省返回 0
func queryInt64(ctx *gin.Context, key string) (int64, bool) {
	var v int64
	if _, err := parseUint(ctx.Query(key), &v); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": key + " 必须是数字"})
		return 0, false
	}
	return v, true
}

func queryInt(ctx *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(ctx.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// currentUserID 当前用户，优先取 X-User-ID 请求头
// 鉴权由上游网关负责，0 表示不限定用户
func currentUserID(ctx *gin.Context) (int64, bool) {
	if h := ctx.GetHeader("X-User-ID"); h != "" {
		id, err := strconv.ParseInt(h, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的用户 ID"})
			return 0, false
		}
		return id, true
	}
	return queryInt64(ctx, "user_id")
}

// ==================== 错误响应 ====================

// errorStatus 业务错误 -> HTTP 状态码
func errorStatus(err error) int {
	var (
		expired    *etsy.CredentialExpiredError
		refreshErr *etsy.TokenRefreshError
		apiErr     *etsy.APIError
	)

	switch {
	case errors.Is(err, service.ErrStoreNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrNoteNotFound),
		errors.Is(err, service.ErrListingNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrNoShops):
		return http.StatusBadRequest
	case errors.As(err, &expired), errors.As(err, &refreshErr):
		return http.StatusUnauthorized
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(ctx *gin.Context, err error) {
	code := errorStatus(err)
	ctx.JSON(code, gin.H{"code": code, "message": err.Error()})
}

func respondOK(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": message, "data": data})
}
