package repository

import (
	"context"

	"gorm.io/gorm"
)

// SyncUnitOfWork 同步工作单元（事务）
// 每张 Etsy 订单的写入在同一事务内完成
type SyncUnitOfWork struct {
	db         *gorm.DB
	Listings   ListingRepository
	Orders     OrderRepository
	OrderItems OrderItemRepository
	Customers  CustomerRepository
}

// NewSyncUnitOfWork 创建工作单元
func NewSyncUnitOfWork(db *gorm.DB) *SyncUnitOfWork {
	return newSyncUnitOfWork(db)
}

func newSyncUnitOfWork(db *gorm.DB) *SyncUnitOfWork {
	return &SyncUnitOfWork{
		db:         db,
		Listings:   NewListingRepository(db),
		Orders:     NewOrderRepository(db),
		OrderItems: NewOrderItemRepository(db),
		Customers:  NewCustomerRepository(db),
	}
}

// Transaction 执行事务
func (u *SyncUnitOfWork) Transaction(ctx context.Context, fn func(uow *SyncUnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newSyncUnitOfWork(tx))
	})
}
