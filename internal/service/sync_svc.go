package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"etsy_dashboard/internal/model"
	"etsy_dashboard/internal/repository"
	"etsy_dashboard/pkg/etsy"
	"etsy_dashboard/pkg/fees"
)

// DefaultOrderDaysBack 默认订单回溯天数
const DefaultOrderDaysBack = 30

// SyncType 同步范围
type SyncType string

const (
	SyncTypeAll      SyncType = "all"
	SyncTypeListings SyncType = "listings"
	SyncTypeOrders   SyncType = "orders"
)

// ParseSyncType 空值按 all 处理
func ParseSyncType(s string) (SyncType, error) {
	switch SyncType(s) {
	case "", SyncTypeAll:
		return SyncTypeAll, nil
	case SyncTypeListings, SyncTypeOrders:
		return SyncType(s), nil
	default:
		return "", fmt.Errorf("%w: 未知同步类型 %q", ErrInvalidInput, s)
	}
}

// SyncResult 同步结果
type SyncResult struct {
	Listings int `json:"listings"`
	Orders   int `json:"orders"`
}

// SyncGateway 同步所需的 Etsy 接口
type SyncGateway interface {
	ListListings(ctx context.Context, storeID, shopID int64, limit, offset int) (*etsy.PageDTO[etsy.ListingDTO], error)
	ListListingImages(ctx context.Context, storeID, listingID int64) ([]etsy.ListingImageDTO, error)
	ListReceipts(ctx context.Context, storeID, shopID, minCreated int64, limit, offset int) (*etsy.PageDTO[etsy.ReceiptDTO], error)
}

// SyncService 店铺商品与订单同步
type SyncService struct {
	storeRepo repository.StoreRepository
	uow       *repository.SyncUnitOfWork
	gateway   SyncGateway
	pageLimit int
	now       func() time.Time
	logger    *zap.Logger
}

// NewSyncService 创建同步服务
func NewSyncService(
	storeRepo repository.StoreRepository,
	uow *repository.SyncUnitOfWork,
	gateway SyncGateway,
	logger *zap.Logger,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		storeRepo: storeRepo,
		uow:       uow,
		gateway:   gateway,
		pageLimit: etsy.DefaultPageLimit,
		now:       time.Now,
		logger:    logger,
	}
}

// SetPageLimit 设置分页大小
func (s *SyncService) SetPageLimit(limit int) {
	if limit > 0 {
		s.pageLimit = limit
	}
}

// Sync 按类型同步店铺
func (s *SyncService) Sync(ctx context.Context, storeID int64, syncType SyncType) (*SyncResult, error) {
	result := &SyncResult{}

	if syncType == SyncTypeAll || syncType == SyncTypeListings {
		n, err := s.SyncListings(ctx, storeID)
		if err != nil {
			return nil, err
		}
		result.Listings = n
	}

	if syncType == SyncTypeAll || syncType == SyncTypeOrders {
		n, err := s.SyncOrders(ctx, storeID, DefaultOrderDaysBack)
		if err != nil {
			return nil, err
		}
		result.Orders = n
	}

	return result, nil
}

// ==================== 商品同步 ====================

// SyncListings 全量同步店铺商品，返回处理数量
func (s *SyncService) SyncListings(ctx context.Context, storeID int64) (int, error) {
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("开始同步商品", zap.Int64("store_id", storeID))

	n, err := etsy.Paginate(ctx, s.pageLimit,
		func(ctx context.Context, limit, offset int) (*etsy.PageDTO[etsy.ListingDTO], error) {
			return s.gateway.ListListings(ctx, storeID, store.EtsyShopID, limit, offset)
		},
		func(l etsy.ListingDTO) error {
			return s.upsertListing(ctx, storeID, l)
		},
	)
	if err != nil {
		s.logger.Warn("商品同步中止", zap.Int64("store_id", storeID), zap.Error(err))
		return 0, fmt.Errorf("同步商品失败: %w", err)
	}

	if err := s.storeRepo.TouchLastSync(ctx, storeID, s.now().UTC()); err != nil {
		return 0, persistErr("touch_last_sync", err)
	}

	s.logger.Info("商品同步完成", zap.Int64("store_id", storeID), zap.Int("count", n))
	return n, nil
}

func (s *SyncService) upsertListing(ctx context.Context, storeID int64, dto etsy.ListingDTO) error {
	images, err := s.gateway.ListListingImages(ctx, storeID, dto.ListingID)
	if err != nil {
		return err
	}

	incoming := buildListing(storeID, dto, images)

	existing, err := s.uow.Listings.FindByEtsyID(ctx, storeID, dto.ListingID)
	if err != nil {
		return persistErr("find_listing", err)
	}

	if existing == nil {
		return persistErr("create_listing", s.uow.Listings.Create(ctx, incoming))
	}

	changes := listingChanges(existing, incoming)
	if len(changes) == 0 {
		return nil
	}
	return persistErr("update_listing", s.uow.Listings.UpdateFields(ctx, existing.ID, changes))
}

// buildListing DTO -> 模型，图片已按 rank 排序
func buildListing(storeID int64, dto etsy.ListingDTO, images []etsy.ListingImageDTO) *model.Listing {
	urls := make(model.StringArray, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.URLFullxFull)
	}

	var primary *string
	if len(urls) > 0 {
		first := urls[0]
		primary = &first
	}

	listing := &model.Listing{
		StoreID:         storeID,
		EtsyListingID:   dto.ListingID,
		Title:           dto.Title,
		Description:     dto.Description,
		Price:           dto.Price.ToFloat(),
		Currency:        dto.Price.CurrencyCode,
		Quantity:        dto.Quantity,
		State:           model.ParseListingState(dto.State),
		Views:           dto.Views,
		Favorites:       dto.NumFavorers,
		Tags:            model.StringArray(dto.Tags),
		Materials:       model.StringArray(dto.Materials),
		ImageURLs:       urls,
		PrimaryImageURL: primary,
		EtsyURL:         dto.URL,
		EtsyCreatedAt:   time.Unix(dto.CreatedTimestamp, 0).UTC(),
		EtsyUpdatedAt:   time.Unix(dto.UpdatedTimestamp, 0).UTC(),
	}
	if dto.ShippingProfile != nil {
		listing.ProcessingMin = dto.ShippingProfile.MinProcessingDays
		listing.ProcessingMax = dto.ShippingProfile.MaxProcessingDays
	}
	return listing
}

// listingChanges 只比较可变字段，主键、币种与创建时间不覆盖
func listingChanges(old, cur *model.Listing) map[string]interface{} {
	changes := map[string]interface{}{}

	if old.Title != cur.Title {
		changes["title"] = cur.Title
	}
	if old.Description != cur.Description {
		changes["description"] = cur.Description
	}
	if old.Price != cur.Price {
		changes["price"] = cur.Price
	}
	if old.Quantity != cur.Quantity {
		changes["quantity"] = cur.Quantity
	}
	if old.State != cur.State {
		changes["state"] = cur.State
	}
	if old.Views != cur.Views {
		changes["views"] = cur.Views
	}
	if old.Favorites != cur.Favorites {
		changes["favorites"] = cur.Favorites
	}
	if !slices.Equal(old.Tags, cur.Tags) {
		changes["tags"] = cur.Tags
	}
	if !slices.Equal(old.Materials, cur.Materials) {
		changes["materials"] = cur.Materials
	}
	if !slices.Equal(old.ImageURLs, cur.ImageURLs) {
		changes["image_urls"] = cur.ImageURLs
	}
	if !equalPtr(old.PrimaryImageURL, cur.PrimaryImageURL) {
		changes["primary_image_url"] = cur.PrimaryImageURL
	}
	if !equalPtr(old.ProcessingMin, cur.ProcessingMin) {
		changes["processing_min"] = cur.ProcessingMin
	}
	if !equalPtr(old.ProcessingMax, cur.ProcessingMax) {
		changes["processing_max"] = cur.ProcessingMax
	}
	if !old.EtsyUpdatedAt.Equal(cur.EtsyUpdatedAt) {
		changes["etsy_updated_at"] = cur.EtsyUpdatedAt
	}

	return changes
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ==================== 订单同步 ====================

// SyncOrders 同步最近 daysBack 天的订单，返回处理数量
// 每张订单单独提交事务，失败时已提交的订单保留
func (s *SyncService) SyncOrders(ctx context.Context, storeID int64, daysBack int) (int, error) {
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return 0, err
	}

	if daysBack <= 0 {
		daysBack = DefaultOrderDaysBack
	}
	minCreated := s.now().AddDate(0, 0, -daysBack).Unix()

	s.logger.Info("开始同步订单",
		zap.Int64("store_id", storeID),
		zap.Int("days_back", daysBack),
	)

	n, err := etsy.Paginate(ctx, s.pageLimit,
		func(ctx context.Context, limit, offset int) (*etsy.PageDTO[etsy.ReceiptDTO], error) {
			return s.gateway.ListReceipts(ctx, storeID, store.EtsyShopID, minCreated, limit, offset)
		},
		func(r etsy.ReceiptDTO) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.uow.Transaction(ctx, func(tx *repository.SyncUnitOfWork) error {
				return s.applyReceipt(ctx, tx, storeID, r)
			})
		},
	)
	if err != nil {
		s.logger.Warn("订单同步中止", zap.Int64("store_id", storeID), zap.Error(err))
		return 0, fmt.Errorf("同步订单失败: %w", err)
	}

	s.logger.Info("订单同步完成", zap.Int64("store_id", storeID), zap.Int("count", n))
	return n, nil
}

// applyReceipt 写入单张订单：客户 -> 订单 -> 订单项 -> 客户聚合
func (s *SyncService) applyReceipt(ctx context.Context, tx *repository.SyncUnitOfWork, storeID int64, r etsy.ReceiptDTO) error {
	// 1. 客户
	customer, err := s.resolveCustomer(ctx, tx, storeID, r)
	if err != nil {
		return err
	}

	// 2. 订单
	order, err := s.upsertOrder(ctx, tx, storeID, r, customer)
	if err != nil {
		return err
	}

	// 3. 订单项
	for _, t := range r.Transactions {
		item, err := s.buildOrderItem(ctx, tx, storeID, order.ID, t)
		if err != nil {
			return err
		}
		if err := tx.OrderItems.CreateIfAbsent(ctx, item); err != nil {
			return persistErr("create_order_item", err)
		}
	}

	// 4. 客户聚合全量重算
	if customer != nil {
		orders, err := tx.Orders.ListByCustomer(ctx, customer.ID, 0)
		if err != nil {
			return persistErr("list_customer_orders", err)
		}
		if err := tx.Customers.UpdateStats(ctx, customer.ID, ComputeCustomerStats(orders)); err != nil {
			return persistErr("update_customer_stats", err)
		}
	}

	return nil
}

func (s *SyncService) resolveCustomer(ctx context.Context, tx *repository.SyncUnitOfWork, storeID int64, r etsy.ReceiptDTO) (*model.Customer, error) {
	if r.BuyerEmail == "" {
		return nil, nil
	}

	customer, err := tx.Customers.FindByEmail(ctx, storeID, r.BuyerEmail)
	if err != nil {
		return nil, persistErr("find_customer", err)
	}

	if customer == nil {
		customer = &model.Customer{
			StoreID:    storeID,
			Email:      r.BuyerEmail,
			Name:       r.Name,
			EtsyUserID: r.BuyerUserID,
		}
		if err := tx.Customers.Create(ctx, customer); err != nil {
			return nil, persistErr("create_customer", err)
		}
		return customer, nil
	}

	// 已存在的客户只刷新名称
	if customer.Name != r.Name {
		if err := tx.Customers.UpdateName(ctx, customer.ID, r.Name); err != nil {
			return nil, persistErr("update_customer", err)
		}
		customer.Name = r.Name
	}
	return customer, nil
}

func (s *SyncService) upsertOrder(ctx context.Context, tx *repository.SyncUnitOfWork, storeID int64, r etsy.ReceiptDTO, customer *model.Customer) (*model.Order, error) {
	status := model.ResolveOrderStatus(r.IsPaid, r.IsShipped)

	existing, err := tx.Orders.FindByReceiptID(ctx, storeID, r.ReceiptID)
	if err != nil {
		return nil, persistErr("find_order", err)
	}

	// 已存在：只更新状态，金额与费用保持首次入库的值
	if existing != nil {
		if err := tx.Orders.UpdateStatus(ctx, existing.ID, status, r.IsPaid, r.IsShipped); err != nil {
			return nil, persistErr("update_order", err)
		}
		return existing, nil
	}

	subtotal := r.Subtotal.ToFloat()
	f := fees.ComputeOrderFees(subtotal, len(r.Transactions))

	order := &model.Order{
		StoreID:        storeID,
		EtsyReceiptID:  r.ReceiptID,
		OrderTotal:     r.Grandtotal.ToFloat(),
		Subtotal:       subtotal,
		ShippingCost:   r.TotalShippingCost.ToFloat(),
		TaxCost:        r.TotalTaxCost.ToFloat(),
		DiscountAmount: r.DiscountAmt.ToFloat(),
		Currency:       r.Grandtotal.CurrencyCode,
		Status:         status,
		IsPaid:         r.IsPaid,
		IsShipped:      r.IsShipped,
		BuyerEmail:     r.BuyerEmail,
		BuyerName:      r.Name,
		ShippingAddress: datatypes.JSONMap{
			"formatted": r.FormattedAddress,
		},
		EtsyCreatedAt: r.CreatedAt(),
	}
	if customer != nil {
		order.CustomerID = &customer.ID
	}
	order.ApplyFees(
		decimal.NewFromFloat(f.ListingFee).Add(decimal.NewFromFloat(f.TransactionFee)).InexactFloat64(),
		f.ProcessingFee,
	)

	if err := tx.Orders.Create(ctx, order); err != nil {
		return nil, persistErr("create_order", err)
	}
	return order, nil
}

func (s *SyncService) buildOrderItem(ctx context.Context, tx *repository.SyncUnitOfWork, storeID, orderID int64, t etsy.TransactionDTO) (*model.OrderItem, error) {
	listing, err := tx.Listings.FindByEtsyID(ctx, storeID, t.ListingID)
	if err != nil {
		return nil, persistErr("find_listing", err)
	}

	variations, err := json.Marshal(t.Variations)
	if err != nil {
		return nil, fmt.Errorf("序列化规格失败: %w", err)
	}

	item := &model.OrderItem{
		ID:                fmt.Sprintf("%d-%d", orderID, t.TransactionID),
		OrderID:           orderID,
		EtsyTransactionID: t.TransactionID,
		EtsyListingID:     t.ListingID,
		Title:             t.Title,
		Quantity:          t.Quantity,
		Price:             t.Price.ToFloat(),
		ShippingCost:      t.ShippingCost.ToFloat(),
		Variations:        datatypes.JSON(variations),
	}
	if listing != nil {
		item.ListingID = &listing.ID
	}
	return item, nil
}

// ComputeCustomerStats 根据客户全部订单重算聚合指标
// orders 需按 Etsy 下单时间倒序
func ComputeCustomerStats(orders []model.Order) repository.CustomerStats {
	if len(orders) == 0 {
		return repository.CustomerStats{}
	}

	spent := decimal.Zero
	for _, o := range orders {
		spent = spent.Add(decimal.NewFromFloat(o.OrderTotal))
	}

	first := orders[len(orders)-1].EtsyCreatedAt
	last := orders[0].EtsyCreatedAt

	return repository.CustomerStats{
		TotalOrders:  len(orders),
		TotalSpent:   spent.InexactFloat64(),
		AverageOrder: spent.Div(decimal.NewFromInt(int64(len(orders)))).Round(2).InexactFloat64(),
		FirstOrderAt: &first,
		LastOrderAt:  &last,
	}
}

func (s *SyncService) loadStore(ctx context.Context, storeID int64) (*model.Store, error) {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("查询店铺失败: %w", err)
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}
	return store, nil
}
