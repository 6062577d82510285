package service

import (
	"context"
	"fmt"

	"etsy_dashboard/internal/model"
	"etsy_dashboard/internal/repository"
)

// StoreService 店铺查询
type StoreService struct {
	repo repository.StoreRepository
}

// NewStoreService 创建店铺服务
func NewStoreService(repo repository.StoreRepository) *StoreService {
	return &StoreService{repo: repo}
}

// StoreSummary 店铺列表项
type StoreSummary struct {
	model.Store
	Count repository.StoreCounts `json:"_count"`
}

// List 用户已连接的店铺及关联数据计数，userID 为 0 时返回全部
func (s *StoreService) List(ctx context.Context, userID int64) ([]StoreSummary, error) {
	stores, err := s.repo.List(ctx, repository.StoreFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("查询店铺列表失败: %w", err)
	}

	ids := make([]int64, 0, len(stores))
	for _, st := range stores {
		ids = append(ids, st.ID)
	}
	counts, err := s.repo.CountRelated(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("统计店铺数据失败: %w", err)
	}

	result := make([]StoreSummary, 0, len(stores))
	for _, st := range stores {
		result = append(result, StoreSummary{Store: st, Count: counts[st.ID]})
	}
	return result, nil
}

// Get 查询单个店铺
func (s *StoreService) Get(ctx context.Context, id int64) (*model.Store, error) {
	store, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询店铺失败: %w", err)
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}
	return store, nil
}

// ResolveStoreIDs 统计与列表接口的店铺范围
// storeID > 0 时只取该店铺（仍受 userID 约束），否则取用户全部店铺
func (s *StoreService) ResolveStoreIDs(ctx context.Context, userID, storeID int64) ([]int64, error) {
	filter := repository.StoreFilter{UserID: userID}
	if storeID > 0 {
		filter.IDs = []int64{storeID}
	}

	stores, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("查询店铺失败: %w", err)
	}

	ids := make([]int64, 0, len(stores))
	for _, st := range stores {
		ids = append(ids, st.ID)
	}
	return ids, nil
}

// ListActiveIDs 定时同步使用，跳过需重新授权的店铺
func (s *StoreService) ListActiveIDs(ctx context.Context) ([]int64, error) {
	stores, err := s.repo.List(ctx, repository.StoreFilter{ActiveOnly: true, SyncableOnly: true})
	if err != nil {
		return nil, fmt.Errorf("查询活跃店铺失败: %w", err)
	}

	ids := make([]int64, 0, len(stores))
	for _, st := range stores {
		ids = append(ids, st.ID)
	}
	return ids, nil
}
