package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"etsy_dashboard/internal/model"
	"etsy_dashboard/internal/repository"
	"etsy_dashboard/pkg/etsy"
	"etsy_dashboard/pkg/utils"
)

// DefaultAuthURL Etsy 授权页
const DefaultAuthURL = "https://www.etsy.com/oauth/connect"

// DefaultScopes 看板所需权限
var DefaultScopes = []string{"email_r", "listings_r", "shops_r", "transactions_r", "profile_r"}

// AuthConfig OAuth 授权配置
type AuthConfig struct {
	ClientID    string // Etsy API Key
	AuthURL     string
	TokenURL    string
	RedirectURL string
	Scopes      []string
	HTTPClient  *http.Client
}

// ShopLister 用新 Token 查询当前用户的店铺
type ShopLister interface {
	ListMyShops(ctx context.Context, accessToken string) ([]etsy.ShopDTO, error)
}

// AuthService 店铺授权（PKCE）
type AuthService struct {
	storeRepo  repository.StoreRepository
	shops      ShopLister
	oauth      *oauth2.Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAuthService 工厂方法
func NewAuthService(storeRepo repository.StoreRepository, shops ShopLister, cfg AuthConfig, logger *zap.Logger) *AuthService {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		storeRepo: storeRepo,
		shops:     shops,
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: cfg.HTTPClient,
		logger:     logger,
	}
}

// GenerateLoginURL 生成授权链接，state 与 verifier 缓存 10 分钟
func (s *AuthService) GenerateLoginURL(userID int64) (string, error) {
	// 1. 生成 PKCE 参数
	pkce, err := utils.NewPKCE(64)
	if err != nil {
		return "", fmt.Errorf("生成 verifier 失败: %w", err)
	}
	state, err := utils.GenerateRandomString(16)
	if err != nil {
		return "", fmt.Errorf("生成 state 失败: %w", err)
	}

	// 2. 缓存 "verifier:user_id"，顺带回收未完成授权的 state
	if n := utils.PurgeExpired(); n > 0 {
		s.logger.Debug("清理过期授权 state", zap.Int("count", n))
	}
	utils.SetCache(state, fmt.Sprintf("%s:%d", pkce.Verifier, userID))

	// 3. 拼接授权 URL
	return s.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pkce.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}

// HandleCallback 校验 state -> 换 Token -> 查店铺 -> 入库
func (s *AuthService) HandleCallback(ctx context.Context, code, state string) (*model.Store, error) {
	// 1. 校验 state，用完即焚
	cached, ok := utils.TakeCache(state)
	if !ok {
		return nil, ErrInvalidState
	}

	verifier, userID, err := parseAuthCache(cached)
	if err != nil {
		return nil, err
	}

	// 2. 换 Token
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	token, err := s.oauth.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		return nil, fmt.Errorf("换取 Token 失败: %w", err)
	}

	// 3. 查询店铺
	shops, err := s.shops.ListMyShops(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("查询店铺失败: %w", err)
	}
	if len(shops) == 0 {
		return nil, ErrNoShops
	}
	shop := shops[0]

	// 4. 入库，重复授权只刷新 Token
	store := &model.Store{
		EtsyShopID:     shop.ShopID,
		UserID:         userID,
		ShopName:       shop.ShopName,
		ShopURL:        shop.URL,
		Currency:       shop.CurrencyCode,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: token.Expiry.UTC(),
		TokenStatus:    model.TokenStatusValid,
		IsActive:       true,
	}
	if err := s.storeRepo.UpsertByEtsyShopID(ctx, store); err != nil {
		return nil, persistErr("upsert_store", err)
	}

	saved, err := s.storeRepo.GetByEtsyShopID(ctx, shop.ShopID)
	if err != nil {
		return nil, fmt.Errorf("查询店铺失败: %w", err)
	}

	s.logger.Info("店铺授权成功",
		zap.Int64("store_id", saved.ID),
		zap.Int64("etsy_shop_id", shop.ShopID),
		zap.Int64("user_id", userID),
	)
	return saved, nil
}

// parseAuthCache 解析 "verifier:user_id"
func parseAuthCache(v string) (string, int64, error) {
	idx := strings.LastIndex(v, ":")
	if idx <= 0 {
		return "", 0, fmt.Errorf("%w: 缓存格式错误", ErrInvalidState)
	}
	userID, err := strconv.ParseInt(v[idx+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: 缓存中的 user_id 无效", ErrInvalidState)
	}
	return v[:idx], userID, nil
}
