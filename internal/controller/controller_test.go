package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"etsy_dashboard/internal/middleware"
	"etsy_dashboard/internal/model"
	"etsy_dashboard/internal/repository"
	"etsy_dashboard/internal/service"
	"etsy_dashboard/pkg/etsy"
)

// ==================== 测试辅助 ====================

type fakeTrigger struct {
	err   error
	calls int
	last  service.SyncType
}

func (f *fakeTrigger) SyncStoreNow(_ context.Context, _ int64, syncType service.SyncType) (*service.SyncResult, error) {
	f.calls++
	f.last = syncType
	if f.err != nil {
		return nil, f.err
	}
	return &service.SyncResult{Listings: 3, Orders: 2}, nil
}

func setupCtlTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func setupCtlRouter(t *testing.T, trigger StoreSyncTrigger) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	db := setupCtlTestDB(t)

	storeSvc := service.NewStoreService(repository.NewStoreRepository(db))
	listingSvc := service.NewListingService(repository.NewListingRepository(db))
	analyticsSvc := service.NewAnalyticsService(repository.NewAnalyticsRepository(db), zap.NewNop())
	customerSvc := service.NewCustomerService(
		repository.NewCustomerRepository(db),
		repository.NewOrderRepository(db),
		repository.NewOrderItemRepository(db),
		zap.NewNop(),
	)

	storeCtl := NewStoreController(storeSvc, listingSvc)
	analyticsCtl := NewAnalyticsController(analyticsSvc, storeSvc)
	customerCtl := NewCustomerController(customerSvc, storeSvc)
	syncCtl := NewSyncController(trigger)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/etsy/sync", middleware.SyncRateLimit(0), syncCtl.Sync)
	api.GET("/stores", storeCtl.List)
	api.GET("/listings", storeCtl.ListListings)
	api.GET("/listings/:id", storeCtl.GetListing)
	api.PATCH("/listings/:id", storeCtl.UpdateListing)
	api.GET("/analytics", analyticsCtl.Dashboard)
	api.GET("/analytics/chart", analyticsCtl.Chart)
	api.POST("/fees/calculate", analyticsCtl.CalculateFees)
	api.GET("/customers", customerCtl.List)
	api.GET("/customers/:id", customerCtl.Detail)
	api.PUT("/customers/:id/tags", customerCtl.UpdateTags)
	api.POST("/customers/:id/notes", customerCtl.AddNote)
	api.PATCH("/customers/:id/notes/:note_id", customerCtl.CompleteNote)
	api.DELETE("/customers/:id/notes/:note_id", customerCtl.DeleteNote)
	return r, db
}

func doRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// ==================== 测试用例 ====================

func TestFeeController_Calculate(t *testing.T) {
	r, _ := setupCtlRouter(t, &fakeTrigger{})

	w := doRequest(r, http.MethodPost, "/api/fees/calculate", gin.H{"price": 25, "shipping_cost": 5})
	require.Equal(t, http.StatusOK, w.Code)

	var rev struct {
		GrossRevenue float64 `json:"gross_revenue"`
		NetRevenue   float64 `json:"net_revenue"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &rev))
	// quantity 缺省按 1 计算
	assert.InDelta(t, 30.0, rev.GrossRevenue, 1e-9)
	assert.InDelta(t, 27.175, rev.NetRevenue, 1e-9)

	w = doRequest(r, http.MethodPost, "/api/fees/calculate", gin.H{"price": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncController_Sync(t *testing.T) {
	trigger := &fakeTrigger{}
	r, _ := setupCtlRouter(t, trigger)
	t.Cleanup(func() { middleware.ResetSyncLimit(501, service.SyncTypeListings) })

	w := doRequest(r, http.MethodPost, "/api/etsy/sync", gin.H{"store_id": 501, "sync_type": "listings"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.SyncTypeListings, trigger.last)

	var data struct {
		Synced service.SyncResult `json:"synced"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, 3, data.Synced.Listings)

	// 冷却中
	w = doRequest(r, http.MethodPost, "/api/etsy/sync", gin.H{"store_id": 501, "sync_type": "listings"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, trigger.calls)

	w = doRequest(r, http.MethodPost, "/api/etsy/sync", gin.H{"store_id": 501, "sync_type": "images"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncController_FailureResetsCooldown(t *testing.T) {
	trigger := &fakeTrigger{err: fmt.Errorf("同步商品失败: %w", &etsy.CredentialExpiredError{StoreID: 502})}
	r, _ := setupCtlRouter(t, trigger)
	t.Cleanup(func() { middleware.ResetSyncLimit(502, service.SyncTypeAll) })

	w := doRequest(r, http.MethodPost, "/api/etsy/sync", gin.H{"store_id": 502})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 失败不占用冷却，可立即重试
	w = doRequest(r, http.MethodPost, "/api/etsy/sync", gin.H{"store_id": 502})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 2, trigger.calls)
}

func TestAnalyticsController_Dashboard(t *testing.T) {
	r, db := setupCtlRouter(t, &fakeTrigger{})
	require.NoError(t, db.Create(&model.Store{EtsyShopID: 1, UserID: 7}).Error)

	w := doRequest(r, http.MethodGet, "/api/analytics?period=7d&user_id=7", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var dash struct {
		ChartData []service.ChartPoint `json:"chart_data"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &dash))
	assert.Len(t, dash.ChartData, 7)

	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/api/analytics?period=2w", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/api/analytics?store_id=x", nil).Code)
}

func TestAnalyticsController_Chart(t *testing.T) {
	r, _ := setupCtlRouter(t, &fakeTrigger{})

	w := doRequest(r, http.MethodGet, "/api/analytics/chart?start=2024-03-01&end=2024-03-03", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var series []service.ChartPoint
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &series))
	require.Len(t, series, 3)
	assert.Equal(t, "2024-03-01", series[0].Date)

	w = doRequest(r, http.MethodGet, "/api/analytics/chart?start=2024-03-05&end=2024-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomerController_Flow(t *testing.T) {
	r, db := setupCtlRouter(t, &fakeTrigger{})
	store := &model.Store{EtsyShopID: 1, UserID: 7}
	require.NoError(t, db.Create(store).Error)
	customer := &model.Customer{StoreID: store.ID, Email: "ada@example.com", Name: "Ada"}
	require.NoError(t, db.Omit("Notes").Create(customer).Error)

	base := fmt.Sprintf("/api/customers/%d", customer.ID)

	// 列表
	w := doRequest(r, http.MethodGet, "/api/customers?user_id=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page service.PageResult[model.Customer]
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
	assert.Equal(t, int64(1), page.Total)

	// 标签
	w = doRequest(r, http.MethodPut, base+"/tags", gin.H{"tags": []string{"vip", "vip", " gift "}})
	require.Equal(t, http.StatusOK, w.Code)

	// 备注
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	w = doRequest(r, http.MethodPost, base+"/notes", gin.H{"content": "follow up", "type": "follow_up", "due_date": due})
	require.Equal(t, http.StatusOK, w.Code)
	var note model.CustomerNote
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &note))

	w = doRequest(r, http.MethodPost, base+"/notes", gin.H{"content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPatch, fmt.Sprintf("%s/notes/%d", base, note.ID), gin.H{"is_completed": true})
	require.Equal(t, http.StatusOK, w.Code)

	// 详情
	w = doRequest(r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Tags  []string             `json:"tags"`
		Notes []model.CustomerNote `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &detail))
	assert.Equal(t, []string{"vip", "gift"}, detail.Tags)
	require.Len(t, detail.Notes, 1)
	assert.True(t, detail.Notes[0].IsCompleted)

	w = doRequest(r, http.MethodDelete, fmt.Sprintf("%s/notes/%d", base, note.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(r, http.MethodDelete, fmt.Sprintf("%s/notes/%d", base, note.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/api/customers/999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/api/customers/abc", nil).Code)
}

func TestStoreController_Listings(t *testing.T) {
	r, db := setupCtlRouter(t, &fakeTrigger{})
	store := &model.Store{EtsyShopID: 1, UserID: 7}
	require.NoError(t, db.Create(store).Error)
	listing := &model.Listing{StoreID: store.ID, EtsyListingID: 10, Title: "Mug", State: model.ListingStateActive}
	require.NoError(t, db.Create(listing).Error)

	w := doRequest(r, http.MethodGet, "/api/stores?user_id=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stores []struct {
		ID    int64 `json:"id"`
		Count struct {
			Listings  int64 `json:"listings"`
			Orders    int64 `json:"orders"`
			Customers int64 `json:"customers"`
		} `json:"_count"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &stores))
	require.Len(t, stores, 1)
	assert.Equal(t, store.ID, stores[0].ID)
	assert.Equal(t, int64(1), stores[0].Count.Listings)
	assert.Equal(t, int64(0), stores[0].Count.Orders)

	w = doRequest(r, http.MethodGet, "/api/listings?user_id=7&state=active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page service.PageResult[model.Listing]
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
	assert.Equal(t, int64(1), page.Total)

	w = doRequest(r, http.MethodGet, fmt.Sprintf("/api/listings/%d", listing.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/api/listings/999", nil).Code)

	w = doRequest(r, http.MethodPatch, fmt.Sprintf("/api/listings/%d", listing.ID), gin.H{"title": "Mug XL", "price": 18, "tags": []string{"mug"}})
	require.Equal(t, http.StatusOK, w.Code)
	var updated model.Listing
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &updated))
	assert.Equal(t, "Mug XL", updated.Title)
	assert.Equal(t, 18.0, updated.Price)
	assert.Equal(t, model.StringArray{"mug"}, updated.Tags)

	w = doRequest(r, http.MethodPatch, fmt.Sprintf("/api/listings/%d", listing.ID), gin.H{"price": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodPatch, "/api/listings/999", gin.H{"title": "x"}).Code)
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrStoreNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", service.ErrInvalidInput), http.StatusBadRequest},
		{&etsy.CredentialExpiredError{StoreID: 1}, http.StatusUnauthorized},
		{&etsy.TokenRefreshError{StoreID: 1, StatusCode: 400}, http.StatusUnauthorized},
		{&etsy.APIError{StatusCode: 429}, http.StatusTooManyRequests},
		{&etsy.APIError{StatusCode: 503}, http.StatusBadGateway},
		{&service.PersistenceError{Op: "x", Err: errors.New("disk")}, http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, errorStatus(c.err), c.err.Error())
	}
}
