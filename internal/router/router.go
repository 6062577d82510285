package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "etsy_dashboard/docs"
	"etsy_dashboard/internal/controller"
	"etsy_dashboard/internal/middleware"
)

// Controllers 路由依赖的控制器
type Controllers struct {
	Auth      *controller.AuthController
	Sync      *controller.SyncController
	Store     *controller.StoreController
	Analytics *controller.AnalyticsController
	Customer  *controller.CustomerController
}

// NewEngine 创建 gin 引擎并注册通用中间件
func NewEngine(logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))
	return r
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, c Controllers) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		// Etsy 授权与同步
		etsy := api.Group("/etsy")
		{
			// GET /api/etsy/connect
			etsy.GET("/connect", c.Auth.Connect)
			// GET /api/etsy/callback
			etsy.GET("/callback", c.Auth.Callback)
			// POST /api/etsy/sync
			etsy.POST("/sync", middleware.SyncRateLimit(0), c.Sync.Sync)
		}

		// 店铺与商品
		api.GET("/stores", c.Store.List)
		listings := api.Group("/listings")
		{
			listings.GET("", c.Store.ListListings)
			listings.GET("/:id", c.Store.GetListing)
			listings.PATCH("/:id", c.Store.UpdateListing)
		}

		// 统计看板
		analytics := api.Group("/analytics")
		{
			analytics.GET("", c.Analytics.Dashboard)
			analytics.GET("/chart", c.Analytics.Chart)
			analytics.GET("/top-listings", c.Analytics.TopListings)
		}

		// 定价计算器
		api.POST("/fees/calculate", c.Analytics.CalculateFees)

		// 客户管理
		customers := api.Group("/customers")
		{
			customers.GET("", c.Customer.List)
			customers.GET("/:id", c.Customer.Detail)
			customers.PUT("/:id/tags", c.Customer.UpdateTags)
			customers.POST("/:id/notes", c.Customer.AddNote)
			customers.PATCH("/:id/notes/:note_id", c.Customer.CompleteNote)
			customers.DELETE("/:id/notes/:note_id", c.Customer.DeleteNote)
		}
	}
}
