package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestResolveOrderStatus(t *testing.T) {
	assert.Equal(t, OrderStatusShipped, ResolveOrderStatus(true, true))
	assert.Equal(t, OrderStatusShipped, ResolveOrderStatus(false, true))
	assert.Equal(t, OrderStatusPaid, ResolveOrderStatus(true, false))
	assert.Equal(t, OrderStatusPending, ResolveOrderStatus(false, false))
}

func TestParseListingState(t *testing.T) {
	assert.Equal(t, ListingStateActive, ParseListingState("active"))
	assert.Equal(t, ListingStateDraft, ParseListingState("draft"))
	assert.Equal(t, ListingStateInactive, ParseListingState("sold_out"))
	assert.Equal(t, ListingStateUnknown, ParseListingState("something_new"))
}

func TestOrder_ApplyFees(t *testing.T) {
	o := &Order{OrderTotal: 30}
	o.ApplyFees(1.825, 1.0)

	assert.InDelta(t, 27.175, o.NetRevenue, 1e-9)
	assert.InDelta(t, o.OrderTotal-o.EtsyFees-o.ProcessingFees, o.NetRevenue, 1e-9)

	// 十进制相减，不出现浮点尾差
	o = &Order{OrderTotal: 0.3}
	o.ApplyFees(0.1, 0.1)
	assert.Equal(t, 0.1, o.NetRevenue)
}

func TestStringArray_RoundTrip(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	require.NoError(t, db.AutoMigrate(&Listing{}))

	l := &Listing{
		StoreID:       1,
		EtsyListingID: 10,
		Tags:          StringArray{"mug", "ceramic gift", "a,b"},
	}
	require.NoError(t, db.Create(l).Error)

	var got Listing
	require.NoError(t, db.First(&got, l.ID).Error)
	assert.Equal(t, StringArray{"mug", "ceramic gift", "a,b"}, got.Tags)
	assert.True(t, got.Tags.Contains("mug"))
	assert.Nil(t, got.Materials)
}
