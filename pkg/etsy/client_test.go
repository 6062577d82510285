package etsy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== 测试辅助 ====================

type staticTokens struct {
	token string
	err   error
	calls int32
}

func (s *staticTokens) EnsureValid(_ context.Context, storeID int64) (*Credential, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return &Credential{StoreID: storeID, AccessToken: s.token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		Timeout:      5 * time.Second,
		RetryCount:   2,
		RetryWait:    time.Millisecond,
		RetryMaxWait: 5 * time.Millisecond,
	}, tokens, nil)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// ==================== 测试用例 ====================

func TestClient_ListListings_SendsAuthHeaders(t *testing.T) {
	var gotAuth, gotKey, gotPath, gotLimit, gotOffset string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("x-api-key")
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("limit")
		gotOffset = r.URL.Query().Get("offset")
		writeJSON(w, PageDTO[ListingDTO]{
			Count:   1,
			Results: []ListingDTO{{ListingID: 42, Title: "Mug", Price: MoneyDTO{Amount: 2500, Divisor: 100, CurrencyCode: "USD"}}},
		})
	}, &staticTokens{token: "abc"})

	page, err := client.ListListings(context.Background(), 1, 777, 100, 0)
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "/application/shops/777/listings", gotPath)
	assert.Equal(t, "100", gotLimit)
	assert.Equal(t, "0", gotOffset)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 25.0, page.Results[0].Price.ToFloat())
}

func TestClient_ListListingImages_SortedByRank(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, PageDTO[ListingImageDTO]{
			Count: 3,
			Results: []ListingImageDTO{
				{URLFullxFull: "c", Rank: 3},
				{URLFullxFull: "a", Rank: 1},
				{URLFullxFull: "b", Rank: 2},
			},
		})
	}, &staticTokens{token: "abc"})

	images, err := client.ListListingImages(context.Background(), 1, 42)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, "a", images[0].URLFullxFull)
	assert.Equal(t, "b", images[1].URLFullxFull)
	assert.Equal(t, "c", images[2].URLFullxFull)
}

func TestClient_ListReceipts_MinCreated(t *testing.T) {
	var gotMinCreated string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMinCreated = r.URL.Query().Get("min_created")
		writeJSON(w, PageDTO[ReceiptDTO]{})
	}, &staticTokens{token: "abc"})

	_, err := client.ListReceipts(context.Background(), 1, 777, 1700000000, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, "1700000000", gotMinCreated)
}

func TestClient_NonSuccessReturnsAPIError(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"shop not found"}`))
	}, &staticTokens{token: "abc"})

	_, err := client.ListListings(context.Background(), 1, 777, 100, 0)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "shop not found")
	assert.False(t, apiErr.Retryable())
	// 4xx 不重试
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, PageDTO[ListingDTO]{Count: 0})
	}, &staticTokens{token: "abc"})

	_, err := client.ListListings(context.Background(), 1, 777, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_RetryExhaustedReturnsAPIError(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, &staticTokens{token: "abc"})

	_, err := client.ListListings(context.Background(), 1, 777, 100, 0)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, apiErr.Retryable())
	// 首次 + 2 次重试
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClient_TokenErrorShortCircuits(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}, &staticTokens{err: &CredentialExpiredError{StoreID: 9}})

	_, err := client.ListListings(context.Background(), 9, 777, 100, 0)

	var expired *CredentialExpiredError
	require.True(t, errors.As(err, &expired))
	assert.Equal(t, int64(9), expired.StoreID)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestClient_ListMyShops(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/application/users/me/shops", r.URL.Path)
		writeJSON(w, PageDTO[ShopDTO]{Count: 1, Results: []ShopDTO{{ShopID: 5, ShopName: "Crafts"}}})
	}, nil)

	shops, err := client.ListMyShops(context.Background(), "fresh-token")
	require.NoError(t, err)
	assert.Equal(t, "Bearer fresh-token", gotAuth)
	require.Len(t, shops, 1)
	assert.Equal(t, "Crafts", shops[0].ShopName)
}

// ==================== 分页 ====================

func TestPaginate_StopsAtCount(t *testing.T) {
	var offsets []int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, offset)

		results := make([]ListingDTO, 0, 2)
		for i := offset; i < offset+2 && i < 5; i++ {
			results = append(results, ListingDTO{ListingID: int64(i + 1)})
		}
		writeJSON(w, PageDTO[ListingDTO]{Count: 5, Results: results})
	}, &staticTokens{token: "abc"})

	var ids []int64
	n, err := Paginate(context.Background(), 2,
		func(ctx context.Context, limit, offset int) (*PageDTO[ListingDTO], error) {
			return client.ListListings(ctx, 1, 777, limit, offset)
		},
		func(l ListingDTO) error {
			ids = append(ids, l.ListingID)
			return nil
		},
	)

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []int{0, 2, 4}, offsets)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
}

func TestPaginate_StopsOnEmptyPage(t *testing.T) {
	calls := 0
	n, err := Paginate(context.Background(), 10,
		func(ctx context.Context, limit, offset int) (*PageDTO[int], error) {
			calls++
			if offset == 0 {
				return &PageDTO[int]{Count: 100, Results: []int{1, 2, 3}}, nil
			}
			return &PageDTO[int]{Count: 100}, nil
		},
		func(int) error { return nil },
	)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, calls)
}

func TestPaginate_PageFailureDiscardsCount(t *testing.T) {
	boom := fmt.Errorf("page 2 failed")
	n, err := Paginate(context.Background(), 1,
		func(ctx context.Context, limit, offset int) (*PageDTO[int], error) {
			if offset == 1 {
				return nil, boom
			}
			return &PageDTO[int]{Count: 3, Results: []int{offset}}, nil
		},
		func(int) error { return nil },
	)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, n)
}

func TestPaginate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := Paginate(ctx, 10,
		func(ctx context.Context, limit, offset int) (*PageDTO[int], error) {
			t.Fatal("不应发起请求")
			return nil, nil
		},
		func(int) error { return nil },
	)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
}

func TestMoneyDTO_ToFloat(t *testing.T) {
	assert.Equal(t, 12.34, MoneyDTO{Amount: 1234, Divisor: 100}.ToFloat())
	assert.Equal(t, 7.0, MoneyDTO{Amount: 7, Divisor: 0}.ToFloat())
}
