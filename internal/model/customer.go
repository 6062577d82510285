package model

import (
	"time"
)

// Customer 买家（按店铺 + 邮箱唯一）
type Customer struct {
	BaseModel
	StoreID    int64       `gorm:"not null;uniqueIndex:idx_customer_store_email" json:"store_id"`
	Email      string      `gorm:"size:255;not null;uniqueIndex:idx_customer_store_email" json:"email"`
	Name       string      `gorm:"size:255" json:"name"`
	EtsyUserID int64       `gorm:"index" json:"etsy_user_id"`
	Tags       StringArray `json:"tags"`

	// 聚合指标，每次同步后全量重算
	TotalOrders  int        `gorm:"default:0" json:"total_orders"`
	TotalSpent   float64    `gorm:"type:decimal(12,2);default:0" json:"total_spent"`
	AverageOrder float64    `gorm:"type:decimal(12,2);default:0" json:"average_order"`
	FirstOrderAt *time.Time `json:"first_order_at"`
	LastOrderAt  *time.Time `json:"last_order_at"`

	Notes []CustomerNote `gorm:"foreignKey:CustomerID" json:"notes,omitempty"`
}

func (Customer) TableName() string {
	return "customers"
}

// 备注类型
const (
	NoteTypeNote     = "note"
	NoteTypeFollowUp = "follow_up"
	NoteTypeReminder = "reminder"
)

// CustomerNote 客户备注
type CustomerNote struct {
	BaseModel
	CustomerID  int64      `gorm:"index;not null" json:"customer_id"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Type        string     `gorm:"size:20;default:note" json:"type"`
	DueDate     *time.Time `json:"due_date"`
	IsCompleted bool       `gorm:"default:false" json:"is_completed"`
}

func (CustomerNote) TableName() string {
	return "customer_notes"
}

// AllModels 需要自动迁移的模型
func AllModels() []interface{} {
	return []interface{}{
		&Store{}, &Listing{}, &Order{}, &OrderItem{}, &Customer{}, &CustomerNote{},
	}
}
