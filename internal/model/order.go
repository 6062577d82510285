package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ==================== 订单状态常量 ====================

// OrderStatus 订单状态
const (
	OrderStatusPending = "pending" // 待支付
	OrderStatusPaid    = "paid"    // 已支付
	OrderStatusShipped = "shipped" // 已发货
)

// ResolveOrderStatus 状态优先级 shipped > paid > pending
func ResolveOrderStatus(isPaid, isShipped bool) string {
	switch {
	case isShipped:
		return OrderStatusShipped
	case isPaid:
		return OrderStatusPaid
	default:
		return OrderStatusPending
	}
}

// ==================== Order 订单主表 ====================

// Order 订单（对应 Etsy Receipt）
type Order struct {
	BaseModel
	StoreID       int64  `gorm:"not null;uniqueIndex:idx_order_store_receipt" json:"store_id"`
	EtsyReceiptID int64  `gorm:"not null;uniqueIndex:idx_order_store_receipt" json:"etsy_receipt_id"`
	CustomerID    *int64 `gorm:"index" json:"customer_id"`

	// 金额（已换算为元）
	OrderTotal     float64 `gorm:"type:decimal(12,2)" json:"order_total"`
	Subtotal       float64 `gorm:"type:decimal(12,2)" json:"subtotal"`
	ShippingCost   float64 `gorm:"type:decimal(12,2)" json:"shipping_cost"`
	TaxCost        float64 `gorm:"type:decimal(12,2)" json:"tax_cost"`
	DiscountAmount float64 `gorm:"type:decimal(12,2)" json:"discount_amount"`

	// 费用与净收入，首次入库后固定
	EtsyFees       float64 `gorm:"type:decimal(12,4)" json:"etsy_fees"`
	ProcessingFees float64 `gorm:"type:decimal(12,4)" json:"processing_fees"`
	NetRevenue     float64 `gorm:"type:decimal(12,4)" json:"net_revenue"`
	Currency       string  `gorm:"size:10" json:"currency"`

	// 状态
	Status    string `gorm:"size:20;index;default:pending" json:"status"`
	IsPaid    bool   `gorm:"default:false" json:"is_paid"`
	IsShipped bool   `gorm:"default:false" json:"is_shipped"`

	// 买家信息
	BuyerEmail      string            `gorm:"size:255" json:"buyer_email"`
	BuyerName       string            `gorm:"size:255" json:"buyer_name"`
	ShippingAddress datatypes.JSONMap `json:"shipping_address"`

	// Etsy 下单时间，统计按此字段排序
	EtsyCreatedAt time.Time `gorm:"index" json:"etsy_created_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// ApplyFees 写入费用并同步净收入
func (o *Order) ApplyFees(etsyFees, processingFees float64) {
	o.EtsyFees = etsyFees
	o.ProcessingFees = processingFees
	o.NetRevenue = decimal.NewFromFloat(o.OrderTotal).
		Sub(decimal.NewFromFloat(etsyFees)).
		Sub(decimal.NewFromFloat(processingFees)).
		InexactFloat64()
}

// ==================== OrderItem 订单项 ====================

// OrderItem 订单项，主键为 {orderId}-{transactionId}
type OrderItem struct {
	ID                string `gorm:"primaryKey;size:64" json:"id"`
	OrderID           int64  `gorm:"index;not null" json:"order_id"`
	ListingID         *int64 `gorm:"index" json:"listing_id"`
	EtsyTransactionID int64  `json:"etsy_transaction_id"`
	EtsyListingID     int64  `json:"etsy_listing_id"`

	Title        string         `gorm:"size:500" json:"title"`
	Quantity     int            `gorm:"default:1" json:"quantity"`
	Price        float64        `gorm:"type:decimal(12,2)" json:"price"`
	ShippingCost float64        `gorm:"type:decimal(12,2)" json:"shipping_cost"`
	Variations   datatypes.JSON `json:"variations"`

	CreatedAt time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
