package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"etsy_dashboard/internal/model"
)

// ==================== OrderRepository 订单仓库 ====================

// OrderRepository 订单仓库接口
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByReceiptID(ctx context.Context, storeID, receiptID int64) (*model.Order, error)

	// UpdateStatus 重复同步只更新状态字段，金额与费用保持首次入库的值
	UpdateStatus(ctx context.Context, id int64, status string, isPaid, isShipped bool) error

	// ListByCustomer 按 Etsy 下单时间倒序
	ListByCustomer(ctx context.Context, customerID int64, limit int) ([]model.Order, error)
}

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *orderRepo) FindByReceiptID(ctx context.Context, storeID, receiptID int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND etsy_receipt_id = ?", storeID, receiptID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status string, isPaid, isShipped bool) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"is_paid":    isPaid,
			"is_shipped": isShipped,
		}).Error
}

func (r *orderRepo) ListByCustomer(ctx context.Context, customerID int64, limit int) ([]model.Order, error) {
	var orders []model.Order
	query := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("etsy_created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&orders).Error
	return orders, err
}

// ==================== OrderItemRepository 订单项仓库 ====================

// OrderItemRepository 订单项仓库接口
type OrderItemRepository interface {
	// CreateIfAbsent 主键已存在时不做任何修改
	CreateIfAbsent(ctx context.Context, item *model.OrderItem) error
	ListByOrder(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}

type orderItemRepo struct {
	db *gorm.DB
}

// NewOrderItemRepository 创建订单项仓库
func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepo{db: db}
}

func (r *orderItemRepo) CreateIfAbsent(ctx context.Context, item *model.OrderItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(item).Error
}

func (r *orderItemRepo) ListByOrder(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}
