package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"etsy_dashboard/internal/model"
)

// ==================== 统计查询 ====================

// AnalyticsRepository 只读统计查询
type AnalyticsRepository interface {
	// SumOrders 统计 [from, to) 区间内订单
	SumOrders(ctx context.Context, storeIDs []int64, from, to time.Time) (*OrderTotals, error)
	// SumViews 商品累计浏览量（不按时间窗口）
	SumViews(ctx context.Context, storeIDs []int64) (int64, error)
	// ListOrderPoints 返回 [from, to) 区间内订单的时间与金额
	ListOrderPoints(ctx context.Context, storeIDs []int64, from, to time.Time) ([]OrderPoint, error)
	// TopListings 在售商品按浏览量排序
	TopListings(ctx context.Context, storeIDs []int64, limit int) ([]TopListingRow, error)
}

// OrderTotals 订单汇总
type OrderTotals struct {
	Revenue    float64
	Fees       float64
	NetRevenue float64
	Orders     int64
}

// OrderPoint 单笔订单时间点
type OrderPoint struct {
	EtsyCreatedAt time.Time
	OrderTotal    float64
	NetRevenue    float64
}

// TopListingRow 热门商品
type TopListingRow struct {
	ID              int64
	Title           string
	PrimaryImageURL *string
	Price           float64
	Views           int
	Favorites       int
	OrderCount      int64
	Revenue         float64
}

type analyticsRepo struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建统计仓储
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepo{db: db}
}

func (r *analyticsRepo) SumOrders(ctx context.Context, storeIDs []int64, from, to time.Time) (*OrderTotals, error) {
	var totals OrderTotals
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select(`COALESCE(SUM(order_total), 0) AS revenue,
			COALESCE(SUM(etsy_fees + processing_fees), 0) AS fees,
			COALESCE(SUM(net_revenue), 0) AS net_revenue,
			COUNT(*) AS orders`).
		Where("store_id IN ? AND etsy_created_at >= ? AND etsy_created_at < ?", storeIDs, from, to).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *analyticsRepo) SumViews(ctx context.Context, storeIDs []int64) (int64, error) {
	var views int64
	err := r.db.WithContext(ctx).Model(&model.Listing{}).
		Select("COALESCE(SUM(views), 0)").
		Where("store_id IN ?", storeIDs).
		Scan(&views).Error
	return views, err
}

func (r *analyticsRepo) ListOrderPoints(ctx context.Context, storeIDs []int64, from, to time.Time) ([]OrderPoint, error) {
	var points []OrderPoint
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("etsy_created_at, order_total, net_revenue").
		Where("store_id IN ? AND etsy_created_at >= ? AND etsy_created_at < ?", storeIDs, from, to).
		Order("etsy_created_at ASC").
		Scan(&points).Error
	return points, err
}

func (r *analyticsRepo) TopListings(ctx context.Context, storeIDs []int64, limit int) ([]TopListingRow, error) {
	var rows []TopListingRow
	err := r.db.WithContext(ctx).Model(&model.Listing{}).
		Select(`listings.id, listings.title, listings.primary_image_url, listings.price,
			listings.views, listings.favorites,
			COUNT(order_items.id) AS order_count,
			COALESCE(SUM(order_items.price * order_items.quantity), 0) AS revenue`).
		Joins("LEFT JOIN order_items ON order_items.listing_id = listings.id").
		Where("listings.store_id IN ? AND listings.state = ?", storeIDs, model.ListingStateActive).
		Group("listings.id").
		Order("listings.views DESC, listings.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
