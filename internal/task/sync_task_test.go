package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"etsy_dashboard/internal/middleware"
	"etsy_dashboard/internal/service"
)

// ==================== 测试辅助 ====================

type fakeSyncer struct {
	mu       sync.Mutex
	calls    map[int64]int
	fail     map[int64]bool
	delay    time.Duration
	inFlight int32
	maxSeen  int32
}

func newFakeSyncer() *fakeSyncer {
	return &fakeSyncer{calls: map[int64]int{}, fail: map[int64]bool{}}
}

func (f *fakeSyncer) Sync(_ context.Context, storeID int64, _ service.SyncType) (*service.SyncResult, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls[storeID]++
	fail := f.fail[storeID]
	f.mu.Unlock()

	if fail {
		return nil, errors.New("etsy unavailable")
	}
	return &service.SyncResult{Listings: 2, Orders: 1}, nil
}

type staticStores []int64

func (s staticStores) ListActiveIDs(context.Context) ([]int64, error) { return s, nil }

// ==================== 测试用例 ====================

func TestSyncTask_SyncAllNow(t *testing.T) {
	syncer := newFakeSyncer()
	syncer.fail[3] = true
	task := NewSyncTask(syncer, staticStores{1, 2, 3, 4}, SyncTaskConfig{Concurrency: 2}, zap.NewNop())

	summary, err := task.SyncAllNow(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 4, summary.Stores)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 6, summary.Listings)
	assert.Equal(t, 3, summary.Orders)
	for _, id := range []int64{1, 2, 3, 4} {
		assert.Equal(t, 1, syncer.calls[id])
	}
}

func TestSyncTask_SyncAllNowMarksCooldown(t *testing.T) {
	syncer := newFakeSyncer()
	syncer.fail[2] = true
	task := NewSyncTask(syncer, staticStores{1, 2}, SyncTaskConfig{}, zap.NewNop())
	task.cooldown = middleware.NewSyncRateLimiter(nil)

	_, err := task.SyncAllNow(context.Background())
	require.NoError(t, err)

	// 成功的店铺紧接着手动同步会被限流
	res := task.cooldown.Check(middleware.StoreSyncKey(1, service.SyncTypeOrders), time.Minute)
	assert.False(t, res.Allowed)
	// 失败的店铺不占用冷却
	res = task.cooldown.Check(middleware.StoreSyncKey(2, service.SyncTypeAll), time.Minute)
	assert.True(t, res.Allowed)
}

func TestSyncTask_RespectsConcurrency(t *testing.T) {
	syncer := newFakeSyncer()
	syncer.delay = 20 * time.Millisecond
	task := NewSyncTask(syncer, staticStores{1, 2, 3, 4, 5, 6}, SyncTaskConfig{Concurrency: 2}, zap.NewNop())

	_, err := task.SyncAllNow(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&syncer.maxSeen), int32(2))
}

func TestSyncTask_NoStores(t *testing.T) {
	task := NewSyncTask(newFakeSyncer(), staticStores{}, SyncTaskConfig{}, nil)

	summary, err := task.SyncAllNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Stores)
}

func TestSyncTask_StartStop(t *testing.T) {
	syncer := newFakeSyncer()
	task := NewSyncTask(syncer, staticStores{1}, SyncTaskConfig{Spec: "0 0 0 1 1 *", RunOnStart: true}, zap.NewNop())

	require.NoError(t, task.Start())
	assert.Eventually(t, func() bool {
		syncer.mu.Lock()
		defer syncer.mu.Unlock()
		return syncer.calls[1] == 1
	}, time.Second, 10*time.Millisecond)
	task.Stop()
}

func TestSyncTask_InvalidSpec(t *testing.T) {
	task := NewSyncTask(newFakeSyncer(), staticStores{}, SyncTaskConfig{Spec: "not a spec"}, zap.NewNop())
	assert.Error(t, task.Start())
}

func TestSyncTask_AddHousekeeping(t *testing.T) {
	task := NewSyncTask(newFakeSyncer(), staticStores{}, SyncTaskConfig{Spec: "0 0 0 1 1 *"}, zap.NewNop())

	var runs atomic.Int32
	require.NoError(t, task.AddHousekeeping("* * * * * *", "sweep", func() int {
		return int(runs.Add(1))
	}))
	assert.Error(t, task.AddHousekeeping("bad spec", "noop", func() int { return 0 }))

	require.NoError(t, task.Start())
	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	task.Stop()
}
