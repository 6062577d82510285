package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"etsy_dashboard/internal/repository"
)

// DefaultTopListingLimit 热门商品默认数量
const DefaultTopListingLimit = 5

const chartDateLayout = "2006-01-02"

// Period 统计周期
type Period string

const (
	Period7d  Period = "7d"
	Period30d Period = "30d"
	Period90d Period = "90d"
	Period1y  Period = "1y"
)

// ParsePeriod 空值默认 30d
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return Period30d, nil
	case Period7d, Period30d, Period90d, Period1y:
		return Period(s), nil
	default:
		return "", fmt.Errorf("%w: 未知统计周期 %q", ErrInvalidInput, s)
	}
}

// Start 周期起点
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case Period7d:
		return now.AddDate(0, 0, -7)
	case Period90d:
		return now.AddDate(0, 0, -90)
	case Period1y:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -30)
	}
}

// Days 周期天数，向上取整
func (p Period) Days(now time.Time) int {
	return int(math.Ceil(now.Sub(p.Start(now)).Hours() / 24))
}

// DashboardStats 看板统计
type DashboardStats struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalOrders       int64   `json:"total_orders"`
	TotalViews        int64   `json:"total_views"`
	ConversionRate    float64 `json:"conversion_rate"`
	AverageOrderValue float64 `json:"average_order_value"`
	TotalFees         float64 `json:"total_fees"`
	NetRevenue        float64 `json:"net_revenue"`
	RevenueChange     float64 `json:"revenue_change"`
	OrdersChange      float64 `json:"orders_change"`
}

// ChartPoint 每日数据
type ChartPoint struct {
	Date       string  `json:"date"`
	Revenue    float64 `json:"revenue"`
	NetRevenue float64 `json:"net_revenue"`
	Orders     int     `json:"orders"`
}

// TopListing 热门商品
type TopListing struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	PrimaryImageURL *string `json:"primary_image_url"`
	Price           float64 `json:"price"`
	Views           int     `json:"views"`
	Favorites       int     `json:"favorites"`
	Orders          int64   `json:"orders"`
	Revenue         float64 `json:"revenue"`
}

// Dashboard 看板数据
type Dashboard struct {
	Stats       *DashboardStats `json:"stats"`
	ChartData   []ChartPoint    `json:"chart_data"`
	TopListings []TopListing    `json:"top_listings"`
}

// AnalyticsService 基于本地数据的只读统计
type AnalyticsService struct {
	repo   repository.AnalyticsRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewAnalyticsService 创建统计服务
func NewAnalyticsService(repo repository.AnalyticsRepository, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, now: time.Now, logger: logger}
}

// GetStats 周期统计与环比
// 订单按 [now-period, now) 统计，浏览量为商品累计值，不按周期过滤
func (s *AnalyticsService) GetStats(ctx context.Context, storeIDs []int64, period Period) (*DashboardStats, error) {
	if len(storeIDs) == 0 {
		return &DashboardStats{}, nil
	}

	now := s.now().UTC()
	start := period.Start(now)
	prevStart := start.Add(-now.Sub(start))

	cur, err := s.repo.SumOrders(ctx, storeIDs, start, now)
	if err != nil {
		return nil, fmt.Errorf("统计当前周期订单失败: %w", err)
	}
	prev, err := s.repo.SumOrders(ctx, storeIDs, prevStart, start)
	if err != nil {
		return nil, fmt.Errorf("统计上一周期订单失败: %w", err)
	}
	views, err := s.repo.SumViews(ctx, storeIDs)
	if err != nil {
		return nil, fmt.Errorf("统计浏览量失败: %w", err)
	}

	stats := &DashboardStats{
		TotalRevenue:  cur.Revenue,
		TotalOrders:   cur.Orders,
		TotalViews:    views,
		TotalFees:     cur.Fees,
		NetRevenue:    cur.NetRevenue,
		RevenueChange: percentChange(cur.Revenue, prev.Revenue),
		OrdersChange:  percentChange(float64(cur.Orders), float64(prev.Orders)),
	}
	if views > 0 {
		stats.ConversionRate = float64(cur.Orders) / float64(views) * 100
	}
	if cur.Orders > 0 {
		stats.AverageOrderValue = cur.Revenue / float64(cur.Orders)
	}
	return stats, nil
}

// percentChange 上期为 0 时返回 0
func percentChange(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// GetChartSeries 按 UTC 日期汇总订单，start 到 end 的每一天都会出现
func (s *AnalyticsService) GetChartSeries(ctx context.Context, storeIDs []int64, start, end time.Time) ([]ChartPoint, error) {
	first := truncateDay(start)
	last := truncateDay(end)
	if last.Before(first) {
		return []ChartPoint{}, nil
	}

	type bucket struct {
		revenue decimal.Decimal
		net     decimal.Decimal
		orders  int
	}
	buckets := map[string]*bucket{}

	if len(storeIDs) > 0 {
		points, err := s.repo.ListOrderPoints(ctx, storeIDs, first, last.AddDate(0, 0, 1))
		if err != nil {
			return nil, fmt.Errorf("查询订单明细失败: %w", err)
		}
		for _, p := range points {
			key := p.EtsyCreatedAt.UTC().Format(chartDateLayout)
			b, ok := buckets[key]
			if !ok {
				b = &bucket{}
				buckets[key] = b
			}
			b.revenue = b.revenue.Add(decimal.NewFromFloat(p.OrderTotal))
			b.net = b.net.Add(decimal.NewFromFloat(p.NetRevenue))
			b.orders++
		}
	}

	series := make([]ChartPoint, 0, int(last.Sub(first).Hours()/24)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		key := day.Format(chartDateLayout)
		point := ChartPoint{Date: key}
		if b, ok := buckets[key]; ok {
			point.Revenue = b.revenue.InexactFloat64()
			point.NetRevenue = b.net.InexactFloat64()
			point.Orders = b.orders
		}
		series = append(series, point)
	}
	return series, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GetTopListings 在售商品按浏览量排序，附带累计订单数与收入
func (s *AnalyticsService) GetTopListings(ctx context.Context, storeIDs []int64, limit int) ([]TopListing, error) {
	if len(storeIDs) == 0 {
		return []TopListing{}, nil
	}
	if limit <= 0 {
		limit = DefaultTopListingLimit
	}

	rows, err := s.repo.TopListings(ctx, storeIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("查询热门商品失败: %w", err)
	}

	result := make([]TopListing, 0, len(rows))
	for _, r := range rows {
		result = append(result, TopListing{
			ID:              r.ID,
			Title:           r.Title,
			PrimaryImageURL: r.PrimaryImageURL,
			Price:           r.Price,
			Views:           r.Views,
			Favorites:       r.Favorites,
			Orders:          r.OrderCount,
			Revenue:         r.Revenue,
		})
	}
	return result, nil
}

// GetDashboard 统计 + 最近 N 天图表 + 热门商品
func (s *AnalyticsService) GetDashboard(ctx context.Context, storeIDs []int64, period Period) (*Dashboard, error) {
	stats, err := s.GetStats(ctx, storeIDs, period)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	chart, err := s.GetChartSeries(ctx, storeIDs, now.AddDate(0, 0, -(period.Days(now) - 1)), now)
	if err != nil {
		return nil, err
	}

	top, err := s.GetTopListings(ctx, storeIDs, DefaultTopListingLimit)
	if err != nil {
		return nil, err
	}

	return &Dashboard{Stats: stats, ChartData: chart, TopListings: top}, nil
}
