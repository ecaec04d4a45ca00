package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/shopfront/promo-pricing/internal/domain/catalog"
	"github.com/shopfront/promo-pricing/internal/domain/pricing"
	"github.com/shopfront/promo-pricing/internal/quote"
)

// PostQuote resolves a price from a fully caller-assembled payload. No
// storage is consulted; this is the path for screens that already hold the
// product and campaign data.
func (h *Handler) PostQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.UnitPrices) == 0 {
		writeError(w, http.StatusBadRequest, "unitPrices required")
		return
	}

	at := h.now()
	if req.At != nil {
		at = *req.At
	}

	res := pricing.Resolve(at, pricing.Input{
		UnitPrices:    req.UnitPrices,
		ServerPrice:   req.ServerDiscountPrice,
		UsageExceeded: req.CampaignUsageExceeded,
		Campaigns:     toCampaigns(req.Campaigns),
	})

	writeJSON(w, http.StatusOK, toResponse(res))
}

// GetProductPrice resolves the display price for a stored product,
// optionally narrowed to one variant via the `variant` query parameter. An
// `at` parameter (RFC 3339) pins the evaluation instant for replay.
func (h *Handler) GetProductPrice(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	variantID := r.URL.Query().Get("variant")

	at, ok := parseAt(w, r)
	if !ok {
		return
	}

	res, err := h.quotes.Quote(r.Context(), productID, variantID, at)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		zctx.From(r.Context()).Error("quote product", zap.String("product_id", productID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(*res))
}

// PostCartPrice resolves a batch of cart lines against a single instant.
func (h *Handler) PostCartPrice(w http.ResponseWriter, r *http.Request) {
	var req cartPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "lines required")
		return
	}

	at := time.Time{}
	if req.At != nil {
		at = *req.At
	}

	lines := make([]quote.CartLine, len(req.Lines))
	for i, l := range req.Lines {
		if l.ProductID == "" {
			writeError(w, http.StatusBadRequest, "productId required on every line")
			return
		}
		lines[i] = quote.CartLine{
			ProductID:     l.ProductID,
			VariantID:     l.VariantID,
			ServerPrice:   l.ServerDiscountPrice,
			UsageExceeded: l.CampaignUsageExceeded,
		}
	}

	res, err := h.quotes.QuoteCart(r.Context(), lines, at)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		zctx.From(r.Context()).Error("quote cart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := cartPriceResponse{Lines: make([]resolutionResponse, len(res))}
	for i, re := range res {
		out.Lines[i] = toResponse(re)
	}
	writeJSON(w, http.StatusOK, out)
}

// parseAt reads the optional `at` query parameter. It writes a 400 and
// returns false when the value is malformed.
func parseAt(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return time.Time{}, true
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid at timestamp; use RFC 3339")
		return time.Time{}, false
	}
	return at, true
}
