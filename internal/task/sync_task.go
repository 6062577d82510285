package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"etsy_dashboard/internal/middleware"
	"etsy_dashboard/internal/service"
)

// ==================== 接口定义 ====================

// StoreSyncer 单店铺同步
type StoreSyncer interface {
	Sync(ctx context.Context, storeID int64, syncType service.SyncType) (*service.SyncResult, error)
}

// StoreLister 待同步店铺
type StoreLister interface {
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

// ==================== SyncTask 店铺同步任务 ====================

// SyncTaskConfig 同步任务配置
type SyncTaskConfig struct {
	Spec        string        // cron 表达式（秒级）
	Concurrency int           // 店铺并发数
	Timeout     time.Duration // 单轮超时
	RunOnStart  bool          // 启动时立即执行一次
}

// DefaultSyncTaskConfig 每 10 分钟，5 个店铺并发
func DefaultSyncTaskConfig() SyncTaskConfig {
	return SyncTaskConfig{
		Spec:        "0 */10 * * * *",
		Concurrency: 5,
		Timeout:     10 * time.Minute,
		RunOnStart:  true,
	}
}

// RunSummary 单轮同步汇总
type RunSummary struct {
	RunID    string `json:"run_id"`
	Stores   int    `json:"stores"`
	Listings int    `json:"listings"`
	Orders   int    `json:"orders"`
	Failed   int    `json:"failed"`
}

// SyncTask 定时同步所有活跃店铺的商品与订单
// 单店铺内部严格串行，不同店铺并发执行
type SyncTask struct {
	syncer   StoreSyncer
	stores   StoreLister
	cfg      SyncTaskConfig
	cron     *cron.Cron
	cooldown *middleware.SyncRateLimiter // 定时同步完成后占用手动同步冷却
	logger   *zap.Logger
}

// NewSyncTask 创建同步任务
func NewSyncTask(syncer StoreSyncer, stores StoreLister, cfg SyncTaskConfig, logger *zap.Logger) *SyncTask {
	def := DefaultSyncTaskConfig()
	if cfg.Spec == "" {
		cfg.Spec = def.Spec
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SyncTask{
		syncer: syncer,
		stores: stores,
		cfg:    cfg,

		// 上一轮未结束时跳过本轮
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		cooldown: middleware.GetLimiter(),
		logger:   logger,
	}
}

// Start 启动定时任务
func (t *SyncTask) Start() error {
	if t.cfg.RunOnStart {
		go func() {
			t.logger.Info("执行首次店铺同步")
			t.runScheduled()
		}()
	}

	if _, err := t.cron.AddFunc(t.cfg.Spec, t.runScheduled); err != nil {
		return err
	}

	t.cron.Start()
	t.logger.Info("店铺同步任务已启动", zap.String("spec", t.cfg.Spec))
	return nil
}

// AddHousekeeping 挂载维护类任务，与同步共用调度器，需在 Start 之前调用
func (t *SyncTask) AddHousekeeping(spec, name string, fn func() int) error {
	_, err := t.cron.AddFunc(spec, func() {
		if n := fn(); n > 0 {
			t.logger.Debug("维护任务完成", zap.String("job", name), zap.Int("count", n))
		}
	})
	return err
}

// Stop 停止任务，等待正在执行的一轮结束
func (t *SyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Info("店铺同步任务已停止")
}

func (t *SyncTask) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.Timeout)
	defer cancel()

	if _, err := t.SyncAllNow(ctx); err != nil {
		t.logger.Error("定时同步失败", zap.Error(err))
	}
}

// SyncStoreNow 手动同步单个店铺
func (t *SyncTask) SyncStoreNow(ctx context.Context, storeID int64, syncType service.SyncType) (*service.SyncResult, error) {
	return t.syncer.Sync(ctx, storeID, syncType)
}

// SyncAllNow 同步全部活跃店铺
// 单个店铺失败只记录日志，不影响其他店铺
func (t *SyncTask) SyncAllNow(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{RunID: uuid.NewString()}
	log := t.logger.With(zap.String("run_id", summary.RunID))

	ids, err := t.stores.ListActiveIDs(ctx)
	if err != nil {
		return nil, err
	}
	summary.Stores = len(ids)

	if len(ids) == 0 {
		log.Info("无活跃店铺需要同步")
		return summary, nil
	}

	log.Info("开始同步店铺", zap.Int("stores", len(ids)))

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(t.cfg.Concurrency)

	for _, id := range ids {
		if ctx.Err() != nil {
			log.Warn("同步任务超时停止")
			break
		}

		storeID := id
		g.Go(func() error {
			res, err := t.syncer.Sync(ctx, storeID, service.SyncTypeAll)
			if err == nil {
				t.cooldown.MarkStoreSynced(storeID, service.SyncTypeAll)
			}

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				summary.Failed++
				log.Warn("店铺同步失败", zap.Int64("store_id", storeID), zap.Error(err))
				return nil
			}
			summary.Listings += res.Listings
			summary.Orders += res.Orders
			return nil
		})
	}
	_ = g.Wait()

	log.Info("店铺同步完成",
		zap.Int("stores", summary.Stores),
		zap.Int("listings", summary.Listings),
		zap.Int("orders", summary.Orders),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
