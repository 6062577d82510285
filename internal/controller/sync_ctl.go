package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"etsy_dashboard/internal/middleware"
	"etsy_dashboard/internal/service"
)

// StoreSyncTrigger 手动触发同步
type StoreSyncTrigger interface {
	SyncStoreNow(ctx context.Context, storeID int64, syncType service.SyncType) (*service.SyncResult, error)
}

// SyncController 同步控制器
type SyncController struct {
	trigger StoreSyncTrigger
}

// NewSyncController 创建同步控制器
func NewSyncController(trigger StoreSyncTrigger) *SyncController {
	return &SyncController{trigger: trigger}
}

// ==================== Handler 实现 ====================

// Sync 同步单个店铺
// @Summary 手动同步店铺商品与订单
// @Tags Sync
// @Accept json
// @Param body body middleware.SyncTarget true "store_id, sync_type(all/listings/orders)"
// @Success 200 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/etsy/sync [post]
func (c *SyncController) Sync(ctx *gin.Context) {
	// 请求体已被限流中间件缓存
	var req middleware.SyncTarget
	if err := ctx.ShouldBindBodyWith(&req, binding.JSON); err != nil || req.StoreID <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "store_id 不能为空"})
		return
	}

	syncType, err := service.ParseSyncType(req.SyncType)
	if err != nil {
		respondError(ctx, err)
		return
	}

	result, err := c.trigger.SyncStoreNow(ctx.Request.Context(), req.StoreID, syncType)
	if err != nil {
		// 失败不占用冷却时间
		middleware.ResetSyncLimit(req.StoreID, syncType)
		respondError(ctx, err)
		return
	}

	respondOK(ctx, "同步完成", gin.H{
		"store_id":  req.StoreID,
		"sync_type": syncType,
		"synced":    result,
	})
}
