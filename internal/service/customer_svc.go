package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"etsy_dashboard/internal/model"
	"etsy_dashboard/internal/repository"
)

// RecentOrderLimit 客户详情中展示的最近订单数
const RecentOrderLimit = 10

// PageResult 分页结果
type PageResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func newPageResult[T any](items []T, total int64, page, pageSize int) *PageResult[T] {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}

// CustomerDetail 客户详情
type CustomerDetail struct {
	*model.Customer
	RecentOrders []model.Order `json:"recent_orders"`
}

// NoteInput 新建备注参数
type NoteInput struct {
	Content string     `json:"content"`
	Type    string     `json:"type"`
	DueDate *time.Time `json:"due_date"`
}

// CustomerService 客户管理（CRM）
type CustomerService struct {
	customers  repository.CustomerRepository
	orders     repository.OrderRepository
	orderItems repository.OrderItemRepository
	logger     *zap.Logger
}

// NewCustomerService 创建客户服务
func NewCustomerService(
	customers repository.CustomerRepository,
	orders repository.OrderRepository,
	orderItems repository.OrderItemRepository,
	logger *zap.Logger,
) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customers:  customers,
		orders:     orders,
		orderItems: orderItems,
		logger:     logger,
	}
}

// List 分页查询客户
func (s *CustomerService) List(ctx context.Context, filter repository.CustomerFilter) (*PageResult[model.Customer], error) {
	customers, total, err := s.customers.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("查询客户列表失败: %w", err)
	}
	return newPageResult(customers, total, filter.Page, filter.PageSize), nil
}

// GetDetail 客户详情：备注 + 最近订单（含订单项）
func (s *CustomerService) GetDetail(ctx context.Context, id int64) (*CustomerDetail, error) {
	customer, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.ListByCustomer(ctx, id, RecentOrderLimit)
	if err != nil {
		return nil, fmt.Errorf("查询客户订单失败: %w", err)
	}
	for i := range orders {
		items, err := s.orderItems.ListByOrder(ctx, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("查询订单项失败: %w", err)
		}
		orders[i].Items = items
	}

	return &CustomerDetail{Customer: customer, RecentOrders: orders}, nil
}

// UpdateTags 整体替换标签，去空去重并保持顺序
func (s *CustomerService) UpdateTags(ctx context.Context, id int64, tags []string) (*model.Customer, error) {
	if _, err := s.mustGet(ctx, id); err != nil {
		return nil, err
	}

	normalized := NormalizeTags(tags)
	if err := s.customers.UpdateTags(ctx, id, normalized); err != nil {
		return nil, persistErr("update_customer_tags", err)
	}
	return s.mustGet(ctx, id)
}

// NormalizeTags 标签去空去重
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}

// ==================== 备注 ====================

// AddNote 新增备注，类型默认 note
func (s *CustomerService) AddNote(ctx context.Context, customerID int64, in NoteInput) (*model.CustomerNote, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: 备注内容不能为空", ErrInvalidInput)
	}

	noteType := in.Type
	switch noteType {
	case "":
		noteType = model.NoteTypeNote
	case model.NoteTypeNote, model.NoteTypeFollowUp, model.NoteTypeReminder:
	default:
		return nil, fmt.Errorf("%w: 未知备注类型 %q", ErrInvalidInput, in.Type)
	}

	if _, err := s.mustGet(ctx, customerID); err != nil {
		return nil, err
	}

	note := &model.CustomerNote{
		CustomerID: customerID,
		Content:    in.Content,
		Type:       noteType,
		DueDate:    in.DueDate,
	}
	if err := s.customers.CreateNote(ctx, note); err != nil {
		return nil, persistErr("create_note", err)
	}
	return note, nil
}

// SetNoteCompleted 标记备注完成状态
func (s *CustomerService) SetNoteCompleted(ctx context.Context, customerID, noteID int64, completed bool) (*model.CustomerNote, error) {
	note, err := s.mustGetNote(ctx, customerID, noteID)
	if err != nil {
		return nil, err
	}

	if err := s.customers.SetNoteCompleted(ctx, noteID, completed); err != nil {
		return nil, persistErr("update_note", err)
	}
	note.IsCompleted = completed
	return note, nil
}

// DeleteNote 删除备注
func (s *CustomerService) DeleteNote(ctx context.Context, customerID, noteID int64) error {
	if _, err := s.mustGetNote(ctx, customerID, noteID); err != nil {
		return err
	}
	return persistErr("delete_note", s.customers.DeleteNote(ctx, noteID))
}

func (s *CustomerService) mustGet(ctx context.Context, id int64) (*model.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("查询客户失败: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

func (s *CustomerService) mustGetNote(ctx context.Context, customerID, noteID int64) (*model.CustomerNote, error) {
	note, err := s.customers.GetNote(ctx, customerID, noteID)
	if err != nil {
		return nil, fmt.Errorf("查询备注失败: %w", err)
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}
