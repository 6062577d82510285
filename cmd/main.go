package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"etsy_dashboard/internal/config"
	"etsy_dashboard/internal/controller"
	"etsy_dashboard/internal/middleware"
	"etsy_dashboard/internal/model"
	"etsy_dashboard/internal/repository"
	"etsy_dashboard/internal/router"
	"etsy_dashboard/internal/service"
	"etsy_dashboard/internal/task"
	"etsy_dashboard/pkg/database"
	"etsy_dashboard/pkg/etsy"
	"etsy_dashboard/pkg/logger"
	"etsy_dashboard/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径，默认查找 ./config.yaml")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// 2. 初始化日志
	log := logger.Must(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	// 3. 初始化数据库
	db := initDatabase(cfg, log)

	// 4. 初始化依赖
	deps := initDependencies(cfg, db, log)

	// 5. 启动定时任务
	for syncType, d := range cfg.Sync.Cooldowns {
		middleware.SetInterval(service.SyncType(syncType), d)
	}
	if cfg.Sync.Enabled {
		if err := deps.SyncTask.AddHousekeeping("0 0 * * * *", "sync_cooldown_sweep", func() int {
			return middleware.GetLimiter().Sweep(time.Hour)
		}); err != nil {
			log.Fatal("维护任务注册失败", zap.Error(err))
		}
		if err := deps.SyncTask.AddHousekeeping("0 */15 * * * *", "oauth_state_purge", utils.PurgeExpired); err != nil {
			log.Fatal("维护任务注册失败", zap.Error(err))
		}
		if err := deps.SyncTask.Start(); err != nil {
			log.Fatal("定时任务启动失败", zap.Error(err))
		}
		defer deps.SyncTask.Stop()
	}

	// 6. 初始化路由
	gin.SetMode(cfg.Server.Mode)
	r := router.NewEngine(log)
	router.InitRoutes(r, deps.Controllers)

	// 7. 启动服务
	startServer(r, cfg.Server, log)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	SyncTask    *task.SyncTask
	Controllers router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Store     repository.StoreRepository
	Listing   repository.ListingRepository
	Order     repository.OrderRepository
	OrderItem repository.OrderItemRepository
	Customer  repository.CustomerRepository
	Analytics repository.AnalyticsRepository
	SyncUow   *repository.SyncUnitOfWork
}

// Services 服务集合
type Services struct {
	Token     *service.TokenService
	Auth      *service.AuthService
	Sync      *service.SyncService
	Store     *service.StoreService
	Listing   *service.ListingService
	Analytics *service.AnalyticsService
	Customer  *service.CustomerService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config, log *zap.Logger) *gorm.DB {
	db, err := database.InitDB(cfg.Database.DSN, database.Options{
		LogLevel:        cfg.Database.LogLevel,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log, model.AllModels()...)
	if err != nil {
		log.Fatal("数据库初始化失败", zap.Error(err))
	}
	return db
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB, log *zap.Logger) *Dependencies {
	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- Etsy 网关 --------
	tokenSvc := service.NewTokenService(repos.Store, cfg.Token(), log.Named("token"))
	client := etsy.NewClient(cfg.EtsyClient(), tokenSvc, log.Named("etsy"))

	// -------- 业务服务 --------
	services := &Services{
		Token:     tokenSvc,
		Auth:      service.NewAuthService(repos.Store, client, cfg.Auth(), log.Named("auth")),
		Sync:      service.NewSyncService(repos.Store, repos.SyncUow, client, log.Named("sync")),
		Store:     service.NewStoreService(repos.Store),
		Listing:   service.NewListingService(repos.Listing),
		Analytics: service.NewAnalyticsService(repos.Analytics, log.Named("analytics")),
		Customer:  service.NewCustomerService(repos.Customer, repos.Order, repos.OrderItem, log.Named("customer")),
	}
	services.Sync.SetPageLimit(cfg.Sync.PageLimit)

	// -------- 定时任务 --------
	syncTask := task.NewSyncTask(services.Sync, services.Store, cfg.SyncTask(), log.Named("task"))

	// -------- Controller 层 --------
	controllers := router.Controllers{
		Auth:      controller.NewAuthController(services.Auth, cfg.Etsy.SuccessURL),
		Sync:      controller.NewSyncController(syncTask),
		Store:     controller.NewStoreController(services.Store, services.Listing),
		Analytics: controller.NewAnalyticsController(services.Analytics, services.Store),
		Customer:  controller.NewCustomerController(services.Customer, services.Store),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		SyncTask:    syncTask,
		Controllers: controllers,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Store:     repository.NewStoreRepository(db),
		Listing:   repository.NewListingRepository(db),
		Order:     repository.NewOrderRepository(db),
		OrderItem: repository.NewOrderItemRepository(db),
		Customer:  repository.NewCustomerRepository(db),
		Analytics: repository.NewAnalyticsRepository(db),
		SyncUow:   repository.NewSyncUnitOfWork(db),
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine, cfg config.ServerConfig, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Info("服务启动", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("服务强制关闭", zap.Error(err))
		return
	}

	log.Info("服务已退出")
}
