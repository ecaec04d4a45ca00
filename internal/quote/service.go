// Package quote joins the catalog and promotion repositories with the
// pricing engine. It owns the clock: one instant is read per request batch
// so every price resolved for a screen refers to the same moment.
package quote

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopfront/promo-pricing/internal/domain/catalog"
	"github.com/shopfront/promo-pricing/internal/domain/pricing"
)

// CartLine identifies one cart item to price, together with the backend's
// precomputed campaign price and per-shopper usage flag.
type CartLine struct {
	ProductID     string
	VariantID     string
	ServerPrice   *decimal.Decimal
	UsageExceeded bool
}

// Service resolves display prices for catalog products.
type Service struct {
	products  catalog.Repository
	campaigns pricing.Repository
	now       func() time.Time

	tracer    trace.Tracer
	quotes    metric.Int64Counter
	discounts metric.Int64Counter
}

// NewService creates a quote Service with the required repositories and
// telemetry providers.
func NewService(
	products catalog.Repository,
	campaigns pricing.Repository,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Service, error) {
	meter := mp.Meter("promo-pricing/quote")

	quotes, err := meter.Int64Counter("pricing.quotes",
		metric.WithDescription("Price resolutions served"))
	if err != nil {
		return nil, errors.Wrap(err, "create quotes counter")
	}
	discounts, err := meter.Int64Counter("pricing.discounts",
		metric.WithDescription("Price resolutions that carried a discount"))
	if err != nil {
		return nil, errors.Wrap(err, "create discounts counter")
	}

	return &Service{
		products:  products,
		campaigns: campaigns,
		now:       time.Now,
		tracer:    tp.Tracer("promo-pricing/quote"),
		quotes:    quotes,
		discounts: discounts,
	}, nil
}

// Quote resolves the display price for one product, optionally narrowed to
// a selected variant. A zero `at` means "now".
func (s *Service) Quote(ctx context.Context, productID, variantID string, at time.Time) (*pricing.Resolution, error) {
	ctx, span := s.tracer.Start(ctx, "quote.Quote",
		trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	if at.IsZero() {
		at = s.now()
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	campaigns, err := s.campaigns.ListForProduct(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "list campaigns")
	}

	res := pricing.Resolve(at, pricing.Input{
		UnitPrices: p.PriceSet(variantID),
		Campaigns:  campaigns,
	})
	s.record(ctx, res)
	return &res, nil
}

// QuoteCart resolves every cart line against one shared instant.
func (s *Service) QuoteCart(ctx context.Context, lines []CartLine, at time.Time) ([]pricing.Resolution, error) {
	ctx, span := s.tracer.Start(ctx, "quote.QuoteCart",
		trace.WithAttributes(attribute.Int("cart.lines", len(lines))))
	defer span.End()

	if at.IsZero() {
		at = s.now()
	}

	out := make([]pricing.Resolution, 0, len(lines))
	for _, line := range lines {
		p, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, errors.Wrapf(err, "get product %s", line.ProductID)
		}
		campaigns, err := s.campaigns.ListForProduct(ctx, line.ProductID)
		if err != nil {
			return nil, errors.Wrapf(err, "list campaigns for %s", line.ProductID)
		}

		res := pricing.Resolve(at, pricing.Input{
			UnitPrices:    p.PriceSet(line.VariantID),
			ServerPrice:   line.ServerPrice,
			UsageExceeded: line.UsageExceeded,
			Campaigns:     campaigns,
		})
		s.record(ctx, res)
		out = append(out, res)
	}
	return out, nil
}

func (s *Service) record(ctx context.Context, res pricing.Resolution) {
	s.quotes.Add(ctx, 1)
	if res.HasDiscount {
		s.discounts.Add(ctx, 1)
	}
}
