package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"etsy_dashboard/internal/service"
	"etsy_dashboard/pkg/fees"
)

const queryDateLayout = "2006-01-02"

// AnalyticsController 统计看板
type AnalyticsController struct {
	analytics *service.AnalyticsService
	stores    *service.StoreService
}

// NewAnalyticsController 创建统计控制器
func NewAnalyticsController(analytics *service.AnalyticsService, stores *service.StoreService) *AnalyticsController {
	return &AnalyticsController{analytics: analytics, stores: stores}
}

// Dashboard 看板统计
// @Summary 看板统计（指标 + 图表 + 热门商品）
// @Tags Analytics
// @Param store_id query int false "店铺 ID，为空时统计全部店铺"
// @Param period query string false "7d/30d/90d/1y，默认 30d"
// @Success 200 {object} map[string]interface{}
// @Router /api/analytics [get]
func (c *AnalyticsController) Dashboard(ctx *gin.Context) {
	period, err := service.ParsePeriod(ctx.Query("period"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	storeIDs, ok := resolveStores(ctx, c.stores)
	if !ok {
		return
	}

	dashboard, err := c.analytics.GetDashboard(ctx.Request.Context(), storeIDs, period)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "success", dashboard)
}

// Chart 每日收入图表
// @Summary 每日收入
// @Tags Analytics
// @Param store_id query int false "店铺 ID"
// @Param start query string false "开始日期 YYYY-MM-DD，默认 29 天前"
// @Param end query string false "结束日期 YYYY-MM-DD，默认今天"
// @Success 200 {object} map[string]interface{}
// @Router /api/analytics/chart [get]
func (c *AnalyticsController) Chart(ctx *gin.Context) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -29)

	var err error
	if s := ctx.Query("start"); s != "" {
		if start, err = time.Parse(queryDateLayout, s); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "start 格式应为 YYYY-MM-DD"})
			return
		}
	}
	if s := ctx.Query("end"); s != "" {
		if end, err = time.Parse(queryDateLayout, s); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "end 格式应为 YYYY-MM-DD"})
			return
		}
	}
	if end.Before(start) {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "end 不能早于 start"})
		return
	}

	storeIDs, ok := resolveStores(ctx, c.stores)
	if !ok {
		return
	}

	series, err := c.analytics.GetChartSeries(ctx.Request.Context(), storeIDs, start, end)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "success", series)
}

// TopListings 热门商品
// @Summary 热门商品
// @Tags Analytics
// @Param store_id query int false "店铺 ID"
// @Param limit query int false "数量，默认 5"
// @Success 200 {object} map[string]interface{}
// @Router /api/analytics/top-listings [get]
func (c *AnalyticsController) TopListings(ctx *gin.Context) {
	storeIDs, ok := resolveStores(ctx, c.stores)
	if !ok {
		return
	}

	top, err := c.analytics.GetTopListings(ctx.Request.Context(), storeIDs, queryInt(ctx, "limit", service.DefaultTopListingLimit))
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "success", top)
}

// ==================== 费用计算 ====================

// FeeRequest 定价计算参数
type FeeRequest struct {
	Price    float64 `json:"price" binding:"gte=0"`
	Quantity int     `json:"quantity" binding:"gte=0"`
	Shipping float64 `json:"shipping_cost" binding:"gte=0"`
	Cost     float64 `json:"cost" binding:"gte=0"`
	Discount float64 `json:"discount" binding:"gte=0"`
}

// CalculateFees 定价计算器
// @Summary 计算 Etsy 费用与利润
// @Tags Fees
// @Accept json
// @Param body body FeeRequest true "价格参数"
// @Success 200 {object} fees.Revenue
// @Router /api/fees/calculate [post]
func (c *AnalyticsController) CalculateFees(ctx *gin.Context) {
	var req FeeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	respondOK(ctx, "success", fees.ComputeNetRevenue(req.Price, req.Quantity, req.Shipping, req.Cost, req.Discount))
}
