package utils

import (
	"sync"
	"time"
)

// StateTTL OAuth state 有效期，足够完成授权流程
const StateTTL = 10 * time.Minute

// 使用 sync.Map 保证并发安全
var (
	memoryCache sync.Map
	cacheNow    = time.Now
)

type cacheItem struct {
	value     string
	expiresAt time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return now.After(i.expiresAt)
}

// SetCache 按默认有效期缓存
// key: state
// value: verifier:user_id
func SetCache(key, value string) {
	SetCacheTTL(key, value, StateTTL)
}

// SetCacheTTL 指定有效期缓存
func SetCacheTTL(key, value string, ttl time.Duration) {
	memoryCache.Store(key, cacheItem{
		value:     value,
		expiresAt: cacheNow().Add(ttl),
	})
}

// GetCache 读取缓存，过期项懒删除
func GetCache(key string) (string, bool) {
	val, ok := memoryCache.Load(key)
	if !ok {
		return "", false
	}

	item := val.(cacheItem)
	if item.expired(cacheNow()) {
		memoryCache.Delete(key)
		return "", false
	}
	return item.value, true
}

// TakeCache 读取并删除，同一个 key 只有一个调用方能拿到
func TakeCache(key string) (string, bool) {
	val, ok := memoryCache.LoadAndDelete(key)
	if !ok {
		return "", false
	}

	item := val.(cacheItem)
	if item.expired(cacheNow()) {
		return "", false
	}
	return item.value, true
}

// DeleteCache 删除缓存
func DeleteCache(key string) {
	memoryCache.Delete(key)
}

// PurgeExpired 清理过期项，返回清理数量
// 未完成的授权不会再读取对应 state，只能靠这里回收
func PurgeExpired() int {
	now := cacheNow()
	n := 0
	memoryCache.Range(func(key, val any) bool {
		if val.(cacheItem).expired(now) {
			memoryCache.Delete(key)
			n++
		}
		return true
	})
	return n
}
