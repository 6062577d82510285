package model

import (
	"time"
)

// Token 状态常量
const (
	TokenStatusValid   = "valid"        // 有效
	TokenStatusExpired = "auth_invalid" // 需重新授权
)

// Store 已连接的 Etsy 店铺
type Store struct {
	BaseModel

	// 1. 核心身份
	EtsyShopID int64  `gorm:"uniqueIndex;not null" json:"etsy_shop_id"` // Etsy 平台 shop_id
	UserID     int64  `gorm:"index" json:"user_id"`                     // 所属用户
	ShopName   string `gorm:"size:100" json:"shop_name"`
	ShopURL    string `gorm:"size:255" json:"shop_url"`
	Currency   string `gorm:"size:10;default:USD" json:"currency"`

	// 2. API Token
	AccessToken    string    `gorm:"size:512" json:"-"`
	RefreshToken   string    `gorm:"size:512" json:"-"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	TokenStatus    string    `gorm:"size:20;default:valid" json:"token_status"`

	// 3. 同步状态
	LastSyncAt *time.Time `json:"last_sync_at"`
	IsActive   bool       `gorm:"default:true;index" json:"is_active"`
}

func (Store) TableName() string {
	return "stores"
}

// HasRefreshToken 是否持有 refresh token
func (s *Store) HasRefreshToken() bool {
	return s.RefreshToken != ""
}
