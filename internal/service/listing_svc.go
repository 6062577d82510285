package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"etsy_dashboard/internal/model"
	"etsy_dashboard/internal/repository"
)

// ListingService 已同步商品查询
type ListingService struct {
	repo repository.ListingRepository
}

// NewListingService 创建商品服务
func NewListingService(repo repository.ListingRepository) *ListingService {
	return &ListingService{repo: repo}
}

// List 分页查询商品
func (s *ListingService) List(ctx context.Context, filter repository.ListingFilter) (*PageResult[model.Listing], error) {
	listings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("查询商品列表失败: %w", err)
	}
	return newPageResult(listings, total, filter.Page, filter.PageSize), nil
}

// Get 商品详情
func (s *ListingService) Get(ctx context.Context, id int64) (*model.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// ListingUpdate 本地编辑，nil 字段保持不变
// 下次同步时以 Etsy 数据为准
type ListingUpdate struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Tags        *[]string `json:"tags"`
}

// Update 编辑商品标题、描述、价格和标签
func (s *ListingService) Update(ctx context.Context, id int64, in ListingUpdate) (*model.Listing, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{}, 4)
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: 标题不能为空", ErrInvalidInput)
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 || math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0) {
			return nil, fmt.Errorf("%w: 价格无效", ErrInvalidInput)
		}
		fields["price"] = *in.Price
	}
	if in.Tags != nil {
		fields["tags"] = model.StringArray(NormalizeTags(*in.Tags))
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
			return nil, persistErr("update_listing", err)
		}
	}
	return s.Get(ctx, id)
}
