package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etsy_dashboard/internal/service"
)

func setupSyncRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/sync", SyncRateLimit(0), func(c *gin.Context) {
		var body SyncTarget
		_ = c.ShouldBindBodyWith(&body, binding.JSON)
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": body})
	})
	r.POST("/stores/:id/sync", SyncRateLimit(time.Minute), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSyncRateLimit_BodyTarget(t *testing.T) {
	r := setupSyncRouter()
	t.Cleanup(func() {
		ResetSyncLimit(9001, service.SyncTypeOrders)
		ResetSyncLimit(9001, service.SyncTypeListings)
	})

	w := postJSON(r, "/sync", `{"store_id":9001,"sync_type":"orders"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// 请求体仍可被 handler 读取
	var ok struct {
		Data SyncTarget `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ok))
	assert.Equal(t, int64(9001), ok.Data.StoreID)

	w = postJSON(r, "/sync", `{"store_id":9001,"sync_type":"orders"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var limited struct {
		Code int `json:"code"`
		Data struct {
			RetryAfter int    `json:"retry_after"`
			SyncType   string `json:"sync_type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &limited))
	assert.Equal(t, 429, limited.Code)
	assert.Equal(t, "orders", limited.Data.SyncType)
	assert.Greater(t, limited.Data.RetryAfter, 0)

	// 不同类型互不影响
	w = postJSON(r, "/sync", `{"store_id":9001,"sync_type":"listings"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSyncRateLimit_PathParam(t *testing.T) {
	r := setupSyncRouter()
	t.Cleanup(func() { ResetSyncLimit(9002, service.SyncTypeAll) })

	assert.Equal(t, http.StatusOK, postJSON(r, "/stores/9002/sync", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, postJSON(r, "/stores/9002/sync", "").Code)

	res := GetLimiter().Check(StoreSyncKey(9002, service.SyncTypeAll), time.Minute)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	ResetSyncLimit(9002, service.SyncTypeAll)
	assert.Equal(t, http.StatusOK, postJSON(r, "/stores/9002/sync", "").Code)
}

func TestSyncRateLimit_InvalidStore(t *testing.T) {
	r := setupSyncRouter()

	assert.Equal(t, http.StatusBadRequest, postJSON(r, "/stores/abc/sync", "").Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(r, "/sync", `{"sync_type":"all"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(r, "/sync", "").Code)
}

func TestSyncRateLimiter_MarkStoreSynced(t *testing.T) {
	limiter := NewSyncRateLimiter(nil)

	limiter.MarkStoreSynced(7, service.SyncTypeAll)
	for _, st := range []service.SyncType{service.SyncTypeAll, service.SyncTypeListings, service.SyncTypeOrders} {
		assert.False(t, limiter.Check(StoreSyncKey(7, st), time.Minute).Allowed, st)
	}
	assert.True(t, limiter.Check(StoreSyncKey(7, service.SyncTypeOrders), 0).Allowed)

	// 单类型同步只占用自身
	limiter.MarkStoreSynced(8, service.SyncTypeOrders)
	assert.False(t, limiter.Check(StoreSyncKey(8, service.SyncTypeOrders), time.Minute).Allowed)
	assert.True(t, limiter.Check(StoreSyncKey(8, service.SyncTypeListings), time.Minute).Allowed)

	limiter.Reset(StoreSyncKey(7, service.SyncTypeAll))
	assert.True(t, limiter.Check(StoreSyncKey(7, service.SyncTypeAll), time.Minute).Allowed)
}

func TestSyncRateLimiter_ClockAndSweep(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	limiter := NewSyncRateLimiter(func() time.Time { return now })

	require.True(t, limiter.Check("store:1:orders", 5*time.Minute).Allowed)

	now = now.Add(2 * time.Minute)
	res := limiter.Check("store:1:orders", 5*time.Minute)
	assert.False(t, res.Allowed)
	assert.Equal(t, 3*time.Minute, res.RetryAfter)

	now = now.Add(3 * time.Minute)
	assert.True(t, limiter.Check("store:1:orders", 5*time.Minute).Allowed)

	limiter.MarkExecuted("store:2:all")
	now = now.Add(time.Hour)
	limiter.MarkExecuted("store:3:all")
	assert.Equal(t, 2, limiter.Sweep(30*time.Minute))
	assert.False(t, limiter.Check("store:3:all", time.Minute).Allowed)
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "同步冷却中，请 30 秒后重试", formatRetryMessage(30*time.Second))
	assert.Equal(t, "同步冷却中，请 2 分钟后重试", formatRetryMessage(2*time.Minute))
	assert.Equal(t, "同步冷却中，请 1 分 5 秒后重试", formatRetryMessage(65*time.Second))
}

func TestGetInterval(t *testing.T) {
	assert.Equal(t, 5*time.Minute, GetInterval(service.SyncTypeOrders))
	assert.Equal(t, 5*time.Minute, GetInterval(service.SyncType("unknown")))

	SetInterval(service.SyncTypeListings, 0)
	assert.Equal(t, 10*time.Minute, GetInterval(service.SyncTypeListings))
}
