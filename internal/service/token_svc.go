package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"etsy_dashboard/internal/model"
	"etsy_dashboard/internal/repository"
	"etsy_dashboard/pkg/etsy"
)

const (
	// DefaultRefreshBuffer 提前刷新窗口
	DefaultRefreshBuffer = 60 * time.Second
	// refreshTimeout 单次刷新（授权 + 落库）的上限，与调用方取消无关
	refreshTimeout = 30 * time.Second
)

// TokenConfig Token 管理配置
type TokenConfig struct {
	ClientID      string // Etsy API Key
	TokenURL      string
	RefreshBuffer time.Duration
	HTTPClient    *http.Client
}

// TokenService 店铺 OAuth 凭证管理
// 同一店铺的刷新请求通过 singleflight 合并，避免重复使用同一个 refresh token
type TokenService struct {
	storeRepo  repository.StoreRepository
	oauth      *oauth2.Config
	buffer     time.Duration
	httpClient *http.Client
	group      singleflight.Group
	now        func() time.Time
	logger     *zap.Logger
}

var _ etsy.TokenSource = (*TokenService)(nil)

// NewTokenService 创建 Token 服务
func NewTokenService(storeRepo repository.StoreRepository, cfg TokenConfig, logger *zap.Logger) *TokenService {
	if cfg.RefreshBuffer <= 0 {
		cfg.RefreshBuffer = DefaultRefreshBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TokenService{
		storeRepo: storeRepo,
		oauth: &oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		buffer:     cfg.RefreshBuffer,
		httpClient: cfg.HTTPClient,
		now:        time.Now,
		logger:     logger,
	}
}

// EnsureValid 返回店铺当前可用凭证，临近过期时先刷新
func (s *TokenService) EnsureValid(ctx context.Context, storeID int64) (*etsy.Credential, error) {
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if cred, done, err := s.checkCurrent(store); done {
		return cred, err
	}

	// 刷新一旦发出，新 refresh token 必须落库，否则旧的已被 Etsy 作废
	// 调用方取消只会提前返回，不会中断共享的刷新
	ch := s.group.DoChan(strconv.FormatInt(storeID, 10), func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.refresh(refreshCtx, storeID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*etsy.Credential), nil
	}
}

// checkCurrent 判断当前凭证能否直接使用
// done=false 表示需要走刷新流程
func (s *TokenService) checkCurrent(store *model.Store) (*etsy.Credential, bool, error) {
	now := s.now()
	if now.Before(store.TokenExpiresAt.Add(-s.buffer)) {
		return credentialOf(store), true, nil
	}

	if !store.HasRefreshToken() {
		if !now.Before(store.TokenExpiresAt) {
			return nil, true, &etsy.CredentialExpiredError{StoreID: store.ID}
		}
		// 进入缓冲区但尚未过期，且无法刷新，继续使用当前 Token
		return credentialOf(store), true, nil
	}

	return nil, false, nil
}

// refresh 执行 refresh_token 授权
func (s *TokenService) refresh(ctx context.Context, storeID int64) (*etsy.Credential, error) {
	// 重新读取，前一个刷新可能已经写入了新 Token
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if cred, done, err := s.checkCurrent(store); done {
		return cred, err
	}

	httpCtx := ctx
	if s.httpClient != nil {
		httpCtx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	token, err := s.oauth.TokenSource(httpCtx, &oauth2.Token{RefreshToken: store.RefreshToken}).Token()
	if err != nil {
		return nil, s.refreshError(ctx, store, err)
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = store.RefreshToken
	}
	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(time.Hour)
	}
	expiresAt = expiresAt.UTC()

	if err := s.storeRepo.UpdateToken(ctx, store.ID, token.AccessToken, refreshToken, expiresAt); err != nil {
		return nil, persistErr("update_token", err)
	}

	s.logger.Info("店铺 Token 已刷新",
		zap.Int64("store_id", store.ID),
		zap.Time("expires_at", expiresAt),
	)

	return &etsy.Credential{
		StoreID:     store.ID,
		AccessToken: token.AccessToken,
		ExpiresAt:   expiresAt,
	}, nil
}

// refreshError 转换刷新错误；invalid_grant 时标记店铺需要重新授权
func (s *TokenService) refreshError(ctx context.Context, store *model.Store, err error) error {
	refreshErr := &etsy.TokenRefreshError{StoreID: store.ID, Err: err}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil {
			refreshErr.StatusCode = retrieveErr.Response.StatusCode
		}
		if retrieveErr.ErrorCode == "invalid_grant" {
			if markErr := s.storeRepo.MarkTokenInvalid(ctx, store.ID); markErr != nil {
				s.logger.Warn("标记授权失效失败", zap.Int64("store_id", store.ID), zap.Error(markErr))
			}
		}
	}

	s.logger.Warn("店铺 Token 刷新失败",
		zap.Int64("store_id", store.ID),
		zap.Int("status", refreshErr.StatusCode),
		zap.Error(err),
	)
	return refreshErr
}

func (s *TokenService) loadStore(ctx context.Context, storeID int64) (*model.Store, error) {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("查询店铺失败: %w", err)
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}
	return store, nil
}

func credentialOf(store *model.Store) *etsy.Credential {
	return &etsy.Credential{
		StoreID:     store.ID,
		AccessToken: store.AccessToken,
		ExpiresAt:   store.TokenExpiresAt,
	}
}
