package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"etsy_dashboard/internal/model"
)

// ==================== 接口定义 ====================

// ListingRepository 商品仓储接口
type ListingRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	FindByEtsyID(ctx context.Context, storeID, etsyListingID int64) (*model.Listing, error)
	Create(ctx context.Context, listing *model.Listing) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error)
}

// ListingFilter 商品过滤条件
type ListingFilter struct {
	StoreIDs  []int64
	State     string
	Search    string
	SortBy    string // title / price / views / favorites / updated_at
	SortOrder string // asc / desc
	Page      int
	PageSize  int
}

var listingSortColumns = map[string]string{
	"title":      "title",
	"price":      "price",
	"views":      "views",
	"favorites":  "favorites",
	"updated_at": "updated_at",
}

// ==================== 实现 ====================

type listingRepo struct {
	db *gorm.DB
}

// NewListingRepository 创建商品仓储
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepo{db: db}
}

func (r *listingRepo) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepo) FindByEtsyID(ctx context.Context, storeID, etsyListingID int64) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND etsy_listing_id = ?", storeID, etsyListingID).
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepo) Create(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Listing{}).Where("id = ?", id).Updates(fields).Error
}

func (r *listingRepo) List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error) {
	var listings []model.Listing
	var total int64

	if len(filter.StoreIDs) == 0 {
		return listings, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&model.Listing{}).Where("store_id IN ?", filter.StoreIDs)

	if filter.State != "" && filter.State != "all" {
		query = query.Where("state = ?", filter.State)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.Order(orderClause(listingSortColumns, filter.SortBy, filter.SortOrder, "updated_at")).
		Limit(filter.PageSize).Offset(offset).
		Find(&listings).Error
	if err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

// orderClause 白名单排序字段
func orderClause(columns map[string]string, sortBy, sortOrder, fallback string) string {
	column, ok := columns[sortBy]
	if !ok {
		column = fallback
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction + ", id " + direction
}
