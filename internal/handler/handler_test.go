package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/promo-pricing/internal/domain/catalog"
	"github.com/shopfront/promo-pricing/internal/domain/pricing"
	"github.com/shopfront/promo-pricing/internal/quote"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type stubQuotes struct {
	res   pricing.Resolution
	err   error
	lines []quote.CartLine
	at    time.Time
}

func (s *stubQuotes) Quote(_ context.Context, productID, _ string, at time.Time) (*pricing.Resolution, error) {
	s.at = at
	if s.err != nil {
		return nil, s.err
	}
	r := s.res
	return &r, nil
}

func (s *stubQuotes) QuoteCart(_ context.Context, lines []quote.CartLine, at time.Time) ([]pricing.Resolution, error) {
	s.lines = lines
	s.at = at
	if s.err != nil {
		return nil, s.err
	}
	out := make([]pricing.Resolution, len(lines))
	for i := range out {
		out[i] = s.res
	}
	return out, nil
}

func newTestHandler(stub *stubQuotes) *Handler {
	h := New(stub)
	h.now = func() time.Time { return fixedNow }
	return h
}

func doRequest(t *testing.T, h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeResolution(t *testing.T, rec *httptest.ResponseRecorder) resolutionResponse {
	t.Helper()
	var out resolutionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestPostQuote(t *testing.T) {
	h := newTestHandler(&stubQuotes{})

	t.Run("percent voucher under active window", func(t *testing.T) {
		start := fixedNow.Add(-time.Hour)
		end := fixedNow.Add(time.Hour)
		rec := doRequest(t, h, http.MethodPost, "/v1/quote", quoteRequest{
			UnitPrices: []decimal.Decimal{d("200000")},
			Campaigns: []campaignDTO{{
				ID:      "c1",
				Status:  "active",
				StartAt: &start,
				EndAt:   &end,
				Badge:   &badgeDTO{Label: "SALE", Color: "#e53935"},
				Vouchers: []voucherDTO{{
					Type:            "percent",
					DiscountPercent: dp("20"),
				}},
			}},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeResolution(t, rec)
		assert.True(t, d("160000").Equal(got.DisplayPrice), "got %s", got.DisplayPrice)
		assert.True(t, got.HasDiscount)
		assert.Equal(t, 20, got.DiscountPercent)
		require.NotNil(t, got.CampaignBadge)
		assert.Equal(t, "SALE", got.CampaignBadge.Label)
	})

	t.Run("server price equal to original is ignored", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/v1/quote", quoteRequest{
			UnitPrices:          []decimal.Decimal{d("100000")},
			ServerDiscountPrice: dp("100000"),
		})

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeResolution(t, rec)
		assert.False(t, got.HasDiscount)
		assert.True(t, d("100000").Equal(got.DisplayPrice))
		assert.Nil(t, got.CampaignBadge)
	})

	t.Run("usage exceeded withholds server price", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/v1/quote", quoteRequest{
			UnitPrices:            []decimal.Decimal{d("100")},
			ServerDiscountPrice:   dp("50"),
			CampaignUsageExceeded: true,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeResolution(t, rec)
		assert.True(t, d("100").Equal(got.DisplayPrice))
		assert.False(t, got.HasDiscount)
	})

	t.Run("explicit at pins evaluation after the window", func(t *testing.T) {
		start := fixedNow.Add(-time.Hour)
		end := fixedNow.Add(time.Hour)
		later := end.Add(time.Hour)
		rec := doRequest(t, h, http.MethodPost, "/v1/quote", quoteRequest{
			UnitPrices: []decimal.Decimal{d("200000")},
			At:         &later,
			Campaigns: []campaignDTO{{
				Status:   "active",
				StartAt:  &start,
				EndAt:    &end,
				Vouchers: []voucherDTO{{Type: "percent", DiscountPercent: dp("20")}},
			}},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeResolution(t, rec)
		assert.False(t, got.HasDiscount)
	})

	t.Run("empty unit prices rejected", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/v1/quote", quoteRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/quote", bytes.NewBufferString("{nope"))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func dp(v string) *decimal.Decimal {
	x := d(v)
	return &x
}

func TestGetProductPrice(t *testing.T) {
	t.Run("resolved product", func(t *testing.T) {
		stub := &stubQuotes{res: pricing.Resolution{
			Original:    d("100000"),
			Display:     d("80000"),
			HasDiscount: true,
			Percent:     20,
		}}
		h := newTestHandler(stub)

		rec := doRequest(t, h, http.MethodGet, "/v1/products/p1/price?variant=v2", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeResolution(t, rec)
		assert.True(t, d("80000").Equal(got.DisplayPrice))
		assert.Equal(t, 20, got.DiscountPercent)
	})

	t.Run("at parameter is forwarded", func(t *testing.T) {
		stub := &stubQuotes{}
		h := newTestHandler(stub)

		rec := doRequest(t, h, http.MethodGet, "/v1/products/p1/price?at=2025-06-15T09:00:00Z", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC), stub.at.UTC())
	})

	t.Run("invalid at parameter", func(t *testing.T) {
		h := newTestHandler(&stubQuotes{})
		rec := doRequest(t, h, http.MethodGet, "/v1/products/p1/price?at=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		h := newTestHandler(&stubQuotes{err: catalog.ErrNotFound})
		rec := doRequest(t, h, http.MethodGet, "/v1/products/ghost/price", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPostCartPrice(t *testing.T) {
	t.Run("lines forwarded and resolved", func(t *testing.T) {
		stub := &stubQuotes{res: pricing.Resolution{
			Original: d("100"),
			Display:  d("100"),
		}}
		h := newTestHandler(stub)

		rec := doRequest(t, h, http.MethodPost, "/v1/cart/price", cartPriceRequest{
			Lines: []cartLineRequest{
				{ProductID: "p1", ServerDiscountPrice: dp("50"), CampaignUsageExceeded: true},
				{ProductID: "p2", VariantID: "v1"},
			},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		var out cartPriceResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
		assert.Len(t, out.Lines, 2)

		require.Len(t, stub.lines, 2)
		assert.True(t, stub.lines[0].UsageExceeded)
		require.NotNil(t, stub.lines[0].ServerPrice)
		assert.True(t, d("50").Equal(*stub.lines[0].ServerPrice))
		assert.Equal(t, "v1", stub.lines[1].VariantID)
	})

	t.Run("empty lines rejected", func(t *testing.T) {
		h := newTestHandler(&stubQuotes{})
		rec := doRequest(t, h, http.MethodPost, "/v1/cart/price", cartPriceRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("line without product rejected", func(t *testing.T) {
		h := newTestHandler(&stubQuotes{})
		rec := doRequest(t, h, http.MethodPost, "/v1/cart/price", cartPriceRequest{
			Lines: []cartLineRequest{{VariantID: "v1"}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
