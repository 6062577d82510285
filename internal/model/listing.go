package model

import (
	"time"
)

// ListingState 商品状态
type ListingState string

const (
	ListingStateActive   ListingState = "active"
	ListingStateInactive ListingState = "inactive"
	ListingStateDraft    ListingState = "draft"
	ListingStateExpired  ListingState = "expired"
	ListingStateUnknown  ListingState = "unknown"
)

// ParseListingState 解析 Etsy 商品状态，未知值归为 unknown
func ParseListingState(s string) ListingState {
	switch ListingState(s) {
	case ListingStateActive, ListingStateInactive, ListingStateDraft, ListingStateExpired:
		return ListingState(s)
	// Etsy 的 sold_out 与 edit 均视为下架
	case "sold_out", "edit":
		return ListingStateInactive
	default:
		return ListingStateUnknown
	}
}

// Listing 店铺商品
type Listing struct {
	BaseModel
	StoreID       int64 `gorm:"not null;uniqueIndex:idx_listing_store_etsy" json:"store_id"`
	EtsyListingID int64 `gorm:"not null;uniqueIndex:idx_listing_store_etsy" json:"etsy_listing_id"`

	// 基础信息
	Title       string       `gorm:"size:500" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Price       float64      `gorm:"type:decimal(12,2)" json:"price"`
	Currency    string       `gorm:"size:10" json:"currency"`
	Quantity    int          `json:"quantity"`
	State       ListingState `gorm:"size:20;index" json:"state"`

	// 统计
	Views     int `gorm:"default:0" json:"views"`
	Favorites int `gorm:"default:0" json:"favorites"`

	// 标签与图片（PostgreSQL text[]）
	Tags            StringArray `json:"tags"`
	Materials       StringArray `json:"materials"`
	ImageURLs       StringArray `json:"image_urls"`
	PrimaryImageURL *string     `gorm:"size:500" json:"primary_image_url"`
	EtsyURL         string      `gorm:"size:500" json:"etsy_url"`

	// 处理时间（天）
	ProcessingMin *int `json:"processing_min"`
	ProcessingMax *int `json:"processing_max"`

	EtsyCreatedAt time.Time `json:"etsy_created_at"`
	EtsyUpdatedAt time.Time `json:"etsy_updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}
