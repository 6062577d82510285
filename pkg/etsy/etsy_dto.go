package etsy

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==========================================
// DTO: 用于接收 Etsy API 返回的原始 JSON 数据
// ==========================================

// MoneyDTO 金额结构 amount / divisor
type MoneyDTO struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

// Decimal 转换为十进制金额，divisor <= 0 按 1 处理
func (m MoneyDTO) Decimal() decimal.Decimal {
	divisor := m.Divisor
	if divisor <= 0 {
		divisor = 1
	}
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(divisor))
}

// ToFloat 转换为浮点金额
func (m MoneyDTO) ToFloat() float64 {
	return m.Decimal().InexactFloat64()
}

// PageDTO 分页响应 {count, results}
type PageDTO[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// ShippingProfileDTO 商品内嵌的运费模板（仅取处理时间）
type ShippingProfileDTO struct {
	MinProcessingDays *int `json:"min_processing_days"`
	MaxProcessingDays *int `json:"max_processing_days"`
}

// ListingDTO 商品
type ListingDTO struct {
	ListingID        int64               `json:"listing_id"`
	ShopID           int64               `json:"shop_id"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	State            string              `json:"state"`
	Quantity         int                 `json:"quantity"`
	URL              string              `json:"url"`
	Views            int                 `json:"views"`
	NumFavorers      int                 `json:"num_favorers"`
	Tags             []string            `json:"tags"`
	Materials        []string            `json:"materials"`
	Price            MoneyDTO            `json:"price"`
	ShippingProfile  *ShippingProfileDTO `json:"shipping_profile"`
	CreatedTimestamp int64               `json:"created_timestamp"`
	UpdatedTimestamp int64               `json:"updated_timestamp"`
}

// ListingImageDTO 商品图片
type ListingImageDTO struct {
	ListingImageID int64  `json:"listing_image_id"`
	URLFullxFull   string `json:"url_fullxfull"`
	URL570xN       string `json:"url_570xN"`
	Rank           int    `json:"rank"`
}

// VariationDTO 交易规格
type VariationDTO struct {
	PropertyID     int64  `json:"property_id"`
	ValueID        int64  `json:"value_id"`
	FormattedName  string `json:"formatted_name"`
	FormattedValue string `json:"formatted_value"`
}

// TransactionDTO 订单交易行
type TransactionDTO struct {
	TransactionID int64          `json:"transaction_id"`
	ListingID     int64          `json:"listing_id"`
	Title         string         `json:"title"`
	Quantity      int            `json:"quantity"`
	Price         MoneyDTO       `json:"price"`
	ShippingCost  MoneyDTO       `json:"shipping_cost"`
	Variations    []VariationDTO `json:"variations"`
}

// ReceiptDTO 订单（Etsy Receipt）
type ReceiptDTO struct {
	ReceiptID         int64            `json:"receipt_id"`
	BuyerUserID       int64            `json:"buyer_user_id"`
	BuyerEmail        string           `json:"buyer_email"`
	Name              string           `json:"name"`
	FormattedAddress  string           `json:"formatted_address"`
	IsPaid            bool             `json:"is_paid"`
	IsShipped         bool             `json:"is_shipped"`
	Grandtotal        MoneyDTO         `json:"grandtotal"`
	Subtotal          MoneyDTO         `json:"subtotal"`
	TotalShippingCost MoneyDTO         `json:"total_shipping_cost"`
	TotalTaxCost      MoneyDTO         `json:"total_tax_cost"`
	DiscountAmt       MoneyDTO         `json:"discount_amt"`
	CreateTimestamp   int64            `json:"create_timestamp"`
	Transactions      []TransactionDTO `json:"transactions"`
}

// CreatedAt 订单创建时间（UTC）
func (r ReceiptDTO) CreatedAt() time.Time {
	return time.Unix(r.CreateTimestamp, 0).UTC()
}

// ShopDTO 店铺
type ShopDTO struct {
	ShopID       int64  `json:"shop_id"`
	ShopName     string `json:"shop_name"`
	UserID       int64  `json:"user_id"`
	URL          string `json:"url"`
	CurrencyCode string `json:"currency_code"`
}

// Credential 店铺当前可用的访问凭证
type Credential struct {
	StoreID     int64
	AccessToken string
	ExpiresAt   time.Time
}
