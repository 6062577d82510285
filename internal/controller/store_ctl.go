package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"etsy_dashboard/internal/repository"
	"etsy_dashboard/internal/service"
)

// StoreController 店铺与商品查询
type StoreController struct {
	storeService   *service.StoreService
	listingService *service.ListingService
}

// NewStoreController 创建控制器
func NewStoreController(storeService *service.StoreService, listingService *service.ListingService) *StoreController {
	return &StoreController{storeService: storeService, listingService: listingService}
}

// List 已连接店铺
// @Summary 店铺列表
// @Tags Store
// @Param user_id query int false "用户 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/stores [get]
func (c *StoreController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	stores, err := c.storeService.List(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "success", stores)
}

// ListListings 商品列表
// @Summary 商品列表
// @Tags Listing
// @Param store_id query int false "店铺 ID"
// @Param state query string false "active/inactive/draft/expired/all"
// @Param search query string false "标题关键字"
// @Param sort_by query string false "title/price/views/favorites/updated_at"
// @Param sort_order query string false "asc/desc"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} map[string]interface{}
// @Router /api/listings [get]
func (c *StoreController) ListListings(ctx *gin.Context) {
	storeIDs, ok := resolveStores(ctx, c.storeService)
	if !ok {
		return
	}

	page, err := c.listingService.List(ctx.Request.Context(), repository.ListingFilter{
		StoreIDs:  storeIDs,
		State:     ctx.Query("state"),
		Search:    ctx.Query("search"),
		SortBy:    ctx.Query("sort_by"),
		SortOrder: ctx.Query("sort_order"),
		Page:      queryInt(ctx, "page", 1),
		PageSize:  queryInt(ctx, "page_size", 20),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "success", page)
}

// GetListing 商品详情
// @Summary 商品详情
// @Tags Listing
// @Param id path int true "商品 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/listings/{id} [get]
func (c *StoreController) GetListing(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	listing, err := c.listingService.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "success", listing)
}

// UpdateListing 编辑商品
// @Summary 编辑商品
// @Tags Listing
// @Param id path int true "商品 ID"
// @Param body body service.ListingUpdate true "待更新字段"
// @Success 200 {object} map[string]interface{}
// @Router /api/listings/{id} [patch]
func (c *StoreController) UpdateListing(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	var req service.ListingUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
		return
	}

	listing, err := c.listingService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "商品已更新", listing)
}

// resolveStores 按 user_id + store_id 计算查询范围
func resolveStores(ctx *gin.Context, stores *service.StoreService) ([]int64, bool) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return nil, false
	}
	storeID, ok := queryInt64(ctx, "store_id")
	if !ok {
		return nil, false
	}

	ids, err := stores.ResolveStoreIDs(ctx.Request.Context(), userID, storeID)
	if err != nil {
		respondError(ctx, err)
		return nil, false
	}
	return ids, true
}
