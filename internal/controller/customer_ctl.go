package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"etsy_dashboard/internal/repository"
	"etsy_dashboard/internal/service"
)

// CustomerController 客户管理
type CustomerController struct {
	customers *service.CustomerService
	stores    *service.StoreService
}

// NewCustomerController 创建客户控制器
func NewCustomerController(customers *service.CustomerService, stores *service.StoreService) *CustomerController {
	return &CustomerController{customers: customers, stores: stores}
}

// List 客户列表
// @Summary 客户列表
// @Tags Customer
// @Param store_id query int false "店铺 ID"
// @Param search query string false "姓名或邮箱"
// @Param tag query string false "标签"
// @Param sort_by query string false "last_order_at/total_spent/total_orders/name"
// @Param sort_order query string false "asc/desc"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} map[string]interface{}
// @Router /api/customers [get]
func (c *CustomerController) List(ctx *gin.Context) {
	storeIDs, ok := resolveStores(ctx, c.stores)
	if !ok {
		return
	}

	page, err := c.customers.List(ctx.Request.Context(), repository.CustomerFilter{
		StoreIDs:  storeIDs,
		Search:    ctx.Query("search"),
		Tag:       ctx.Query("tag"),
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

// Detail 客户详情
// @Summary 客户详情（含备注与最近订单）
// @Tags Customer
// @Param id path int true "客户 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/customers/{id} [get]
func (c *CustomerController) Detail(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	detail, err := c.customers.GetDetail(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "success", detail)
}

// UpdateTagsRequest 标签更新
type UpdateTagsRequest struct {
	Tags []string `json:"tags"`
}

// UpdateTags 替换客户标签
// @Summary 更新客户标签
// @Tags Customer
// @Param id path int true "客户 ID"
// @Param body body UpdateTagsRequest true "标签"
// @Success 200 {object} map[string]interface{}
// @Router /api/customers/{id}/tags [put]
func (c *CustomerController) UpdateTags(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	var req UpdateTagsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
		return
	}

	customer, err := c.customers.UpdateTags(ctx.Request.Context(), id, req.Tags)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "标签已更新", customer)
}

// ==================== 备注 ====================

// AddNote 新增备注
// @Summary 新增客户备注
// @Tags Customer
// @Param id path int true "客户 ID"
// @Param body body service.NoteInput true "备注"
// @Success 200 {object} map[string]interface{}
// @Router /api/customers/{id}/notes [post]
func (c *CustomerController) AddNote(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	var req service.NoteInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
		return
	}

	note, err := c.customers.AddNote(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "备注已添加", note)
}

// CompleteNoteRequest 备注状态
type CompleteNoteRequest struct {
	IsCompleted bool `json:"is_completed"`
}

// CompleteNote 更新备注完成状态
// @Summary 更新备注完成状态
// @Tags Customer
// @Param id path int true "客户 ID"
// @Param note_id path int true "备注 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/customers/{id}/notes/{note_id} [patch]
func (c *CustomerController) CompleteNote(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}
	noteID := parseID(ctx, "note_id")
	if noteID == 0 {
		return
	}

	var req CompleteNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
		return
	}

	note, err := c.customers.SetNoteCompleted(ctx.Request.Context(), id, noteID, req.IsCompleted)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "备注已更新", note)
}

// DeleteNote 删除备注
// @Summary 删除客户备注
// @Tags Customer
// @Param id path int true "客户 ID"
// @Param note_id path int true "备注 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/customers/{id}/notes/{note_id} [delete]
func (c *CustomerController) DeleteNote(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}
	noteID := parseID(ctx, "note_id")
	if noteID == 0 {
		return
	}

	if err := c.customers.DeleteNote(ctx.Request.Context(), id, noteID); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "备注已删除", nil)
}
