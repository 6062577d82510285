package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"etsy_dashboard/internal/model"
)

// ==================== 接口定义 ====================

// CustomerRepository 客户仓储接口
type CustomerRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	FindByEmail(ctx context.Context, storeID int64, email string) (*model.Customer, error)
	Create(ctx context.Context, customer *model.Customer) error
	UpdateName(ctx context.Context, id int64, name string) error
	UpdateStats(ctx context.Context, id int64, stats CustomerStats) error
	UpdateTags(ctx context.Context, id int64, tags []string) error
	List(ctx context.Context, filter CustomerFilter) ([]model.Customer, int64, error)

	// 备注
	CreateNote(ctx context.Context, note *model.CustomerNote) error
	GetNote(ctx context.Context, customerID, noteID int64) (*model.CustomerNote, error)
	ListNotes(ctx context.Context, customerID int64) ([]model.CustomerNote, error)
	SetNoteCompleted(ctx context.Context, noteID int64, completed bool) error
	DeleteNote(ctx context.Context, noteID int64) error
}

// CustomerStats 客户聚合指标
type CustomerStats struct {
	TotalOrders  int
	TotalSpent   float64
	AverageOrder float64
	FirstOrderAt *time.Time
	LastOrderAt  *time.Time
}

// CustomerFilter 客户过滤条件
type CustomerFilter struct {
	StoreIDs  []int64
	Search    string
	Tag       string
	SortBy    string // last_order_at / total_spent / total_orders / name
	SortOrder string
	Page      int
	PageSize  int
}

var customerSortColumns = map[string]string{
	"last_order_at": "last_order_at",
	"total_spent":   "total_spent",
	"total_orders":  "total_orders",
	"name":          "name",
}

// ==================== 实现 ====================

type customerRepo struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓储
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		First(&customer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) FindByEmail(ctx context.Context, storeID int64, email string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND email = ?", storeID, email).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) Create(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Omit("Notes").Create(customer).Error
}

func (r *customerRepo) UpdateName(ctx context.Context, id int64, name string) error {
	return r.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", id).
		Update("name", name).Error
}

func (r *customerRepo) UpdateStats(ctx context.Context, id int64, stats CustomerStats) error {
	return r.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_orders":   stats.TotalOrders,
			"total_spent":    stats.TotalSpent,
			"average_order":  stats.AverageOrder,
			"first_order_at": stats.FirstOrderAt,
			"last_order_at":  stats.LastOrderAt,
		}).Error
}

func (r *customerRepo) UpdateTags(ctx context.Context, id int64, tags []string) error {
	return r.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", id).
		Update("tags", model.StringArray(tags)).Error
}

func (r *customerRepo) List(ctx context.Context, filter CustomerFilter) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	if len(filter.StoreIDs) == 0 {
		return customers, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&model.Customer{}).Where("store_id IN ?", filter.StoreIDs)

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if filter.Tag != "" {
		if r.db.Dialector.Name() == "postgres" {
			query = query.Where("? = ANY(tags)", filter.Tag)
		} else {
			// 非 PostgreSQL 下 tags 以 {a,b} 文本存储
			query = query.Where("tags LIKE ?", "%"+filter.Tag+"%")
		}
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
	err := query.Order(orderClause(customerSortColumns, filter.SortBy, filter.SortOrder, "last_order_at")).
		Limit(filter.PageSize).Offset(offset).
		Find(&customers).Error
	if err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

// ==================== 备注 ====================

func (r *customerRepo) CreateNote(ctx context.Context, note *model.CustomerNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *customerRepo) GetNote(ctx context.Context, customerID, noteID int64) (*model.CustomerNote, error) {
	var note model.CustomerNote
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", noteID, customerID).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *customerRepo) ListNotes(ctx context.Context, customerID int64) ([]model.CustomerNote, error) {
	var notes []model.CustomerNote
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&notes).Error
	return notes, err
}

func (r *customerRepo) SetNoteCompleted(ctx context.Context, noteID int64, completed bool) error {
	return r.db.WithContext(ctx).Model(&model.CustomerNote{}).
		Where("id = ?", noteID).
		Update("is_completed", completed).Error
}

func (r *customerRepo) DeleteNote(ctx context.Context, noteID int64) error {
	return r.db.WithContext(ctx).Delete(&model.CustomerNote{}, noteID).Error
}
