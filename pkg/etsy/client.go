package etsy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// 默认值
const (
	DefaultBaseURL   = "https://openapi.etsy.com/v3"
	DefaultPageLimit = 100
)

// Config Etsy 客户端配置
type Config struct {
	APIKey  string
	BaseURL string

	// TokenURL 为空时使用 BaseURL + /public/oauth/token
	TokenURL    string
	AuthURL     string
	RedirectURL string
	Scopes      []string

	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration

	// 单店铺请求速率，<= 0 表示不限速
	RequestsPerSecond float64
	Burst             int
}

// TokenEndpoint 返回 Token 接口地址
func (c Config) TokenEndpoint() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return c.baseURL() + "/public/oauth/token"
}

func (c Config) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

// TokenSource 为店铺提供有效凭证
type TokenSource interface {
	EnsureValid(ctx context.Context, storeID int64) (*Credential, error)
}

// Client Etsy API 网关
// 每次调用前通过 TokenSource 获取有效凭证
type Client struct {
	cfg      Config
	http     *resty.Client
	tokens   TokenSource
	limiters sync.Map // storeID -> *rate.Limiter
	logger   *zap.Logger
}

// NewClient 创建网关
func NewClient(cfg Config, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	if cfg.RetryMaxWait < cfg.RetryWait {
		cfg.RetryMaxWait = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.baseURL()).
		SetTimeout(cfg.Timeout).
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())

	// 重试只针对网络错误、429 与 5xx
	if cfg.RetryCount > 0 {
		httpClient.
			SetRetryCount(cfg.RetryCount).
			SetRetryWaitTime(cfg.RetryWait).
			SetRetryMaxWaitTime(cfg.RetryMaxWait).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
				}
				return isRetryableStatus(r.StatusCode())
			})
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		tokens: tokens,
		logger: logger,
	}
}

// ==================== 业务接口 ====================

// ListListings 获取店铺商品（单页）
func (c *Client) ListListings(ctx context.Context, storeID, shopID int64, limit, offset int) (*PageDTO[ListingDTO], error) {
	var page PageDTO[ListingDTO]
	path := fmt.Sprintf("/application/shops/%d/listings", shopID)
	params := map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	}
	if err := c.get(ctx, storeID, path, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListListingImages 获取商品图片，按 rank 升序
func (c *Client) ListListingImages(ctx context.Context, storeID, listingID int64) ([]ListingImageDTO, error) {
	var page PageDTO[ListingImageDTO]
	path := fmt.Sprintf("/application/listings/%d/images", listingID)
	if err := c.get(ctx, storeID, path, nil, &page); err != nil {
		return nil, err
	}

	images := page.Results
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Rank < images[j].Rank
	})
	return images, nil
}

// ListReceipts 获取店铺订单（单页）
// minCreated: Unix 秒
func (c *Client) ListReceipts(ctx context.Context, storeID, shopID, minCreated int64, limit, offset int) (*PageDTO[ReceiptDTO], error) {
	var page PageDTO[ReceiptDTO]
	path := fmt.Sprintf("/application/shops/%d/receipts", shopID)
	params := map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	}
	if minCreated > 0 {
		params["min_created"] = strconv.FormatInt(minCreated, 10)
	}
	if err := c.get(ctx, storeID, path, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListMyShops 授权回调阶段使用，此时店铺尚未入库，直接使用 accessToken
func (c *Client) ListMyShops(ctx context.Context, accessToken string) ([]ShopDTO, error) {
	var page PageDTO[ShopDTO]
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken)
	if err := c.do(req, "/application/users/me/shops", &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// ==================== 请求执行 ====================

func (c *Client) get(ctx context.Context, storeID int64, path string, params map[string]string, out any) error {
	cred, err := c.tokens.EnsureValid(ctx, storeID)
	if err != nil {
		return err
	}

	if err := c.wait(ctx, storeID); err != nil {
		return err
	}

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(cred.AccessToken)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	return c.do(req, path, out)
}

func (c *Client) do(req *resty.Request, path string, out any) error {
	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("请求 Etsy 失败 %s: %w", path, err)
	}

	if !resp.IsSuccess() {
		c.logger.Warn("Etsy 返回错误",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
		)
		return &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("解析 Etsy 响应失败 %s: %w", path, err)
	}
	return nil
}

// wait 单店铺客户端限速
func (c *Client) wait(ctx context.Context, storeID int64) error {
	if c.cfg.RequestsPerSecond <= 0 {
		return nil
	}

	burst := c.cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	actual, _ := c.limiters.LoadOrStore(storeID, rate.NewLimiter(rate.Limit(c.cfg.RequestsPerSecond), burst))
	return actual.(*rate.Limiter).Wait(ctx)
}

// ==================== 分页 ====================

// PageFunc 拉取一页数据
type PageFunc[T any] func(ctx context.Context, limit, offset int) (*PageDTO[T], error)

// Paginate 按 limit/offset 翻页，对每条记录调用 each
// 遇到空页或 offset+limit >= count 时结束
// 任一页或任一条处理失败都会中止，返回 0 与错误
func Paginate[T any](ctx context.Context, limit int, fetch PageFunc[T], each func(item T) error) (int, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	total := 0
	for offset := 0; ; offset += limit {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		page, err := fetch(ctx, limit, offset)
		if err != nil {
			return 0, err
		}
		if len(page.Results) == 0 {
			break
		}

		for _, item := range page.Results {
			if err := each(item); err != nil {
				return 0, err
			}
			total++
		}

		if offset+limit >= page.Count {
			break
		}
	}
	return total, nil
}
