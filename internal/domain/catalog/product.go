// Package catalog holds the product/variant model consumed by the pricing
// engine. Catalog data is owned by an upstream service; this package only
// shapes it for resolution.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Variant is one purchasable unit of a product.
type Variant struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Product is a catalog item, optionally with purchasable variants. When
// variants exist their prices form the product's price set; the flat Price
// only applies to variant-less products.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Variants []Variant
}

// PriceSet derives the unit prices fed into the resolver. An explicitly
// selected variant prices that variant alone; otherwise every variant
// contributes one entry; a variant-less product contributes its flat price.
// An unknown variant ID falls back to the full set rather than failing.
func (p *Product) PriceSet(selectedVariantID string) []decimal.Decimal {
	if selectedVariantID != "" {
		for i := range p.Variants {
			if p.Variants[i].ID == selectedVariantID {
				return []decimal.Decimal{p.Variants[i].Price}
			}
		}
	}
	if len(p.Variants) > 0 {
		prices := make([]decimal.Decimal, len(p.Variants))
		for i, v := range p.Variants {
			prices[i] = v.Price
		}
		return prices
	}
	return []decimal.Decimal{p.Price}
}

// Repository defines read operations for the product catalog.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
}
