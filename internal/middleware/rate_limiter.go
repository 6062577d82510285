package middleware

import (
	"fmt"
	"sync"
	"time"

	"etsy_dashboard/internal/service"
)

// ==================== SyncRateLimiter 同步限流器 ====================

// SyncRateLimiter 手动同步冷却
// 键为 店铺 + 同步类型，记录最近一次放行的时间
type SyncRateLimiter struct {
	entries sync.Map // key -> *cooldownEntry
	now     func() time.Time
}

type cooldownEntry struct {
	mu   sync.Mutex
	last time.Time
}

// NewSyncRateLimiter 创建限流器，now 为空时使用 time.Now
func NewSyncRateLimiter(now func() time.Time) *SyncRateLimiter {
	return &SyncRateLimiter{now: now}
}

var globalLimiter = NewSyncRateLimiter(nil)

// GetLimiter 获取全局限流器
func GetLimiter() *SyncRateLimiter {
	return globalLimiter
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool
	RetryAfter time.Duration // 剩余冷却时间
}

func (r *SyncRateLimiter) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *SyncRateLimiter) entry(key string) *cooldownEntry {
	actual, _ := r.entries.LoadOrStore(key, &cooldownEntry{})
	return actual.(*cooldownEntry)
}

// remaining 调用方需持有 e.mu
func (e *cooldownEntry) remaining(now time.Time, interval time.Duration) time.Duration {
	if e.last.IsZero() {
		return 0
	}
	if left := interval - now.Sub(e.last); left > 0 {
		return left
	}
	return 0
}

// Check 冷却结束则放行并记录本次时间
// key 形如 "store:123:orders"
func (r *SyncRateLimiter) Check(key string, interval time.Duration) CheckResult {
	e := r.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := r.clock()
	if left := e.remaining(now, interval); left > 0 {
		return CheckResult{RetryAfter: left}
	}
	e.last = now
	return CheckResult{Allowed: true}
}

// MarkExecuted 记录一次执行，不做冷却判断
func (r *SyncRateLimiter) MarkExecuted(key string) {
	e := r.entry(key)
	e.mu.Lock()
	e.last = r.clock()
	e.mu.Unlock()
}

// Reset 重置指定 key
func (r *SyncRateLimiter) Reset(key string) {
	r.entries.Delete(key)
}

// Sweep 删除超过 maxAge 未触发的 key，返回删除数量
func (r *SyncRateLimiter) Sweep(maxAge time.Duration) int {
	now := r.clock()
	n := 0
	r.entries.Range(func(key, val any) bool {
		e := val.(*cooldownEntry)
		e.mu.Lock()
		stale := now.Sub(e.last) > maxAge
		e.mu.Unlock()
		if stale {
			r.entries.Delete(key)
			n++
		}
		return true
	})
	return n
}

// ==================== Key 生成工具 ====================

// StoreSyncKey 生成店铺级同步 Key
func StoreSyncKey(storeID int64, syncType service.SyncType) string {
	return fmt.Sprintf("store:%d:%s", storeID, syncType)
}

// MarkStoreSynced 店铺同步完成后占用手动同步冷却
// all 同时覆盖 listings 与 orders
func (r *SyncRateLimiter) MarkStoreSynced(storeID int64, syncType service.SyncType) {
	r.MarkExecuted(StoreSyncKey(storeID, syncType))
	if syncType == service.SyncTypeAll {
		r.MarkExecuted(StoreSyncKey(storeID, service.SyncTypeListings))
		r.MarkExecuted(StoreSyncKey(storeID, service.SyncTypeOrders))
	}
}

// ==================== 默认限流间隔 ====================

var intervalMu sync.RWMutex

// DefaultIntervals 默认限流间隔配置
var DefaultIntervals = map[service.SyncType]time.Duration{
	service.SyncTypeAll:      10 * time.Minute,
	service.SyncTypeListings: 10 * time.Minute,
	service.SyncTypeOrders:   5 * time.Minute,
}

// SetInterval 覆盖某类同步的冷却间隔，启动时按配置调用
func SetInterval(syncType service.SyncType, d time.Duration) {
	if d <= 0 {
		return
	}
	intervalMu.Lock()
	defer intervalMu.Unlock()
	DefaultIntervals[syncType] = d
}

// GetInterval 获取同步类型的默认间隔
func GetInterval(syncType service.SyncType) time.Duration {
	intervalMu.RLock()
	defer intervalMu.RUnlock()
	if interval, ok := DefaultIntervals[syncType]; ok {
		return interval
	}
	return 5 * time.Minute
}
