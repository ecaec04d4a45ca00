// Package handler exposes the pricing engine over HTTP. Screens post either
// a fully assembled pricing payload (stateless quotes) or product
// references that are resolved against the stored catalog and campaigns.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopfront/promo-pricing/internal/domain/pricing"
	"github.com/shopfront/promo-pricing/internal/quote"
)

// QuoteService is the catalog-backed resolution surface the handler needs.
type QuoteService interface {
	Quote(ctx context.Context, productID, variantID string, at time.Time) (*pricing.Resolution, error)
	QuoteCart(ctx context.Context, lines []quote.CartLine, at time.Time) ([]pricing.Resolution, error)
}

// Handler carries the HTTP dependencies and builds the API router.
type Handler struct {
	quotes QuoteService
	now    func() time.Time
}

// New constructs a Handler around the quote service.
func New(quotes QuoteService) *Handler {
	return &Handler{quotes: quotes, now: time.Now}
}

// Routes mounts all API endpoints on a fresh chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Post("/quote", h.PostQuote)
		r.Get("/products/{productID}/price", h.GetProductPrice)
		r.Post("/cart/price", h.PostCartPrice)
	})

	return r
}

// errorResponse is the JSON error body shared by all endpoints.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}
