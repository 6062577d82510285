package controller

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"etsy_dashboard/internal/service"
)

// AuthController Etsy 店铺授权
type AuthController struct {
	authService *service.AuthService
	// successURL 授权完成后的前端跳转地址，为空时返回 JSON
	successURL string
}

// NewAuthController 创建授权控制器
func NewAuthController(s *service.AuthService, successURL string) *AuthController {
	return &AuthController{authService: s, successURL: successURL}
}

// Connect 获取 Etsy 授权链接
// @Summary 获取 Etsy 授权链接
// @Tags Auth
// @Produce json
// @Param user_id query int false "用户 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/etsy/connect [get]
func (ctrl *AuthController) Connect(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	authURL, err := ctrl.authService.GenerateLoginURL(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "请在浏览器中打开授权链接", gin.H{"url": authURL})
}

// Callback Etsy 授权回调
// @Summary Etsy OAuth 回调
// @Tags Auth
// @Param code query string true "授权码"
// @Param state query string true "state"
// @Success 200 {object} map[string]interface{}
// @Router /api/etsy/callback [get]
func (ctrl *AuthController) Callback(c *gin.Context) {
	// 1. 用户拒绝授权
	if errMsg := c.Query("error"); errMsg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "用户拒绝授权: " + errMsg})
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "缺少 code 或 state"})
		return
	}

	// 2. 换 Token 并入库
	store, err := ctrl.authService.HandleCallback(c.Request.Context(), code, state)
	if err != nil {
		respondError(c, err)
		return
	}

	// 3. 跳回前端
	if ctrl.successURL != "" {
		q := url.Values{}
		q.Set("connected", store.ShopName)
		c.Redirect(http.StatusFound, ctrl.successURL+"?"+q.Encode())
		return
	}

	respondOK(c, "授权成功", store)
}
