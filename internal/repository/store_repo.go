package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"etsy_dashboard/internal/model"
)

// ==================== 仓储接口 ====================

// StoreRepository 店铺仓储接口
type StoreRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Store, error)
	GetByEtsyShopID(ctx context.Context, etsyShopID int64) (*model.Store, error)
	List(ctx context.Context, filter StoreFilter) ([]model.Store, error)

	// UpsertByEtsyShopID 授权回调入库，重复授权只刷新 Token
	UpsertByEtsyShopID(ctx context.Context, store *model.Store) error

	// Token 相关
	UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error
	MarkTokenInvalid(ctx context.Context, id int64) error

	TouchLastSync(ctx context.Context, id int64, at time.Time) error

	// CountRelated 各店铺的商品、订单、客户数
	CountRelated(ctx context.Context, ids []int64) (map[int64]StoreCounts, error)
}

// StoreFilter 店铺过滤条件
type StoreFilter struct {
	UserID       int64
	ActiveOnly   bool
	SyncableOnly bool // 排除需重新授权的店铺
	IDs          []int64
}

// StoreCounts 店铺关联数据计数
type StoreCounts struct {
	Listings  int64 `json:"listings"`
	Orders    int64 `json:"orders"`
	Customers int64 `json:"customers"`
}

// ==================== Store 仓储实现 ====================

type storeRepo struct {
	db *gorm.DB
}

// NewStoreRepository 创建店铺仓储
func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepo{db: db}
}

func (r *storeRepo) GetByID(ctx context.Context, id int64) (*model.Store, error) {
	var store model.Store
	err := r.db.WithContext(ctx).First(&store, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) GetByEtsyShopID(ctx context.Context, etsyShopID int64) (*model.Store, error) {
	var store model.Store
	err := r.db.WithContext(ctx).Where("etsy_shop_id = ?", etsyShopID).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) List(ctx context.Context, filter StoreFilter) ([]model.Store, error) {
	var stores []model.Store
	query := r.db.WithContext(ctx).Model(&model.Store{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.SyncableOnly {
		query = query.Where("token_status <> ?", model.TokenStatusExpired)
	}
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}

	err := query.Order("id ASC").Find(&stores).Error
	return stores, err
}

func (r *storeRepo) UpsertByEtsyShopID(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "etsy_shop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "refresh_token", "token_expires_at",
			"token_status", "is_active", "updated_at",
		}),
	}).Create(store).Error
}

func (r *storeRepo) UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Store{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":     accessToken,
			"refresh_token":    refreshToken,
			"token_expires_at": expiresAt,
			"token_status":     model.TokenStatusValid,
		}).Error
}

func (r *storeRepo) MarkTokenInvalid(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&model.Store{}).
		Where("id = ?", id).
		Update("token_status", model.TokenStatusExpired).Error
}

func (r *storeRepo) TouchLastSync(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Store{}).
		Where("id = ?", id).
		Update("last_sync_at", at).Error
}

type storeCountRow struct {
	StoreID int64
	Total   int64
}

func (r *storeRepo) CountRelated(ctx context.Context, ids []int64) (map[int64]StoreCounts, error) {
	counts := make(map[int64]StoreCounts, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	tables := []struct {
		model interface{}
		set   func(c *StoreCounts, n int64)
	}{
		{&model.Listing{}, func(c *StoreCounts, n int64) { c.Listings = n }},
		{&model.Order{}, func(c *StoreCounts, n int64) { c.Orders = n }},
		{&model.Customer{}, func(c *StoreCounts, n int64) { c.Customers = n }},
	}

	for _, tbl := range tables {
		var rows []storeCountRow
		err := r.db.WithContext(ctx).Model(tbl.model).
			Select("store_id, COUNT(*) AS total").
			Where("store_id IN ?", ids).
			Group("store_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			c := counts[row.StoreID]
			tbl.set(&c, row.Total)
			counts[row.StoreID] = c
		}
	}
	return counts, nil
}
