package pricing

import "github.com/shopspring/decimal"

// Range is a min–max pair over a multi-variant price set.
type Range struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func (r *Range) equal(o *Range) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Min.Equal(o.Min) && r.Max.Equal(o.Max)
}

// Quote is the aggregated outcome over a product's unit prices.
type Quote struct {
	Original        decimal.Decimal
	Display         decimal.Decimal
	OriginalRange   *Range
	DiscountedRange *Range
}

// Aggregate folds one or many unit prices into original and display prices,
// applying the given voucher (nil for none) to each unit. Ranges are only
// emitted when the set holds more than one distinct value, and the
// discounted range only when it differs from the original one.
//
// A display price of zero against a positive original signals a malformed
// discount (a full-price wipeout is never an intended markdown); the quote
// falls back to the original price with no discount.
func Aggregate(prices []decimal.Decimal, v *Voucher) Quote {
	if len(prices) == 0 {
		return Quote{}
	}

	discounted := make([]decimal.Decimal, len(prices))
	for i, p := range prices {
		p = floorAtZero(p)
		discounted[i] = ApplyVoucher(p, v)
	}

	origMin, origMax := minMax(prices)
	discMin, discMax := minMax(discounted)

	q := Quote{
		Original: origMin,
		Display:  discMin,
	}

	if len(prices) > 1 && !origMin.Equal(origMax) {
		q.OriginalRange = &Range{Min: origMin, Max: origMax}
		dr := &Range{Min: discMin, Max: discMax}
		if !dr.equal(q.OriginalRange) {
			q.DiscountedRange = dr
		}
	}

	if q.Display.IsZero() && q.Original.IsPositive() {
		q.Display = q.Original
		q.DiscountedRange = nil
	}

	return q
}

func minMax(prices []decimal.Decimal) (lo, hi decimal.Decimal) {
	lo = floorAtZero(prices[0])
	hi = lo
	for _, p := range prices[1:] {
		p = floorAtZero(p)
		if p.LessThan(lo) {
			lo = p
		}
		if p.GreaterThan(hi) {
			hi = p
		}
	}
	return lo, hi
}
