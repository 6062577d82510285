package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"etsy_dashboard/internal/controller"
	"etsy_dashboard/internal/middleware"
)

func TestInitRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewEngine(zap.NewNop())
	InitRoutes(r, Controllers{
		Auth:      &controller.AuthController{},
		Sync:      &controller.SyncController{},
		Store:     &controller.StoreController{},
		Analytics: &controller.AnalyticsController{},
		Customer:  &controller.CustomerController{},
	})

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /api/etsy/connect",
		"GET /api/etsy/callback",
		"POST /api/etsy/sync",
		"GET /api/stores",
		"GET /api/listings",
		"GET /api/listings/:id",
		"PATCH /api/listings/:id",
		"GET /api/analytics",
		"GET /api/analytics/chart",
		"GET /api/analytics/top-listings",
		"POST /api/fees/calculate",
		"GET /api/customers",
		"GET /api/customers/:id",
		"PUT /api/customers/:id/tags",
		"POST /api/customers/:id/notes",
		"PATCH /api/customers/:id/notes/:note_id",
		"DELETE /api/customers/:id/notes/:note_id",
	} {
		assert.True(t, registered[want], want)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/etsy/sync")
}
