package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"etsy_dashboard/internal/service"
)

// ==================== 同步限流中间件 ====================

// SyncTarget 同步请求目标
// 请求体通过 ShouldBindBodyWith 缓存，后续 handler 可再次绑定
type SyncTarget struct {
	StoreID  int64  `json:"store_id"`
	SyncType string `json:"sync_type"`
}

// SyncRateLimit 手动同步冷却中间件
// 按店铺 + 同步类型维度进行限流
//
// 使用示例:
//
//	router.POST("/api/etsy/sync",
//	    middleware.SyncRateLimit(0),
//	    syncCtl.Sync,
//	)
//
// 店铺 ID 依次从路径参数 id、查询参数 store_id、JSON 请求体读取
// interval 为 0 时按同步类型取默认值
func SyncRateLimit(interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := resolveSyncTarget(c)
		if err != nil || target.StoreID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的店铺 ID",
			})
			c.Abort()
			return
		}

		syncType := service.SyncType(target.SyncType)
		if syncType == "" {
			syncType = service.SyncTypeAll
		}

		wait := interval
		if wait == 0 {
			wait = GetInterval(syncType)
		}

		result := GetLimiter().Check(StoreSyncKey(target.StoreID, syncType), wait)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": int(result.RetryAfter.Seconds()),
					"sync_type":   syncType,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func resolveSyncTarget(c *gin.Context) (SyncTarget, error) {
	var target SyncTarget

	idStr := c.Param("id")
	if idStr == "" {
		idStr = c.Query("store_id")
	}
	target.SyncType = c.Query("sync_type")

	if idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return target, err
		}
		target.StoreID = id
		return target, nil
	}

	if c.Request.ContentLength == 0 {
		return target, nil
	}
	if err := c.ShouldBindBodyWith(&target, binding.JSON); err != nil {
		return target, err
	}
	return target, nil
}

// ==================== 辅助函数 ====================

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())

	if seconds < 60 {
		return fmt.Sprintf("同步冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("同步冷却中，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("同步冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}

// ==================== 手动限流重置 ====================

// ResetSyncLimit 重置同步限流，同步失败时调用以便立即重试
func ResetSyncLimit(storeID int64, syncType service.SyncType) {
	GetLimiter().Reset(StoreSyncKey(storeID, syncType))
}
