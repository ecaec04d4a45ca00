// Package pricing implements the promotional price resolution engine: given
// a product's unit prices and the time-boxed campaigns applicable to it,
// it decides which price to show, whether a discount applies and what
// percentage it represents.
//
// The engine is pure. It performs no I/O, holds no state across calls and
// reads no clock of its own; callers supply one wall-clock instant per
// render batch so every price on a screen is evaluated consistently.
// Malformed promotional data never fails a resolution — it degrades to
// "no discount", because a broken promotion must not block showing a price.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Input is everything needed to resolve one product's display price.
type Input struct {
	// UnitPrices holds one entry per purchasable unit: the flat product
	// price, or one entry per variant. Must be non-empty for a usable
	// resolution.
	UnitPrices []decimal.Decimal
	// ServerPrice is an optional discounted price precomputed by the
	// catalog backend. A value equal to the original price means "not
	// computed yet", not "confirmed no discount".
	ServerPrice *decimal.Decimal
	// UsageExceeded marks a cart line whose campaign redemption cap was
	// hit for this shopper. It withholds the discount from every source.
	UsageExceeded bool
	// Campaigns applicable to the product, in backend priority order.
	Campaigns []Campaign
}

// CartLine is the cart calling convention: a single unit price plus the
// backend's precomputed campaign price and per-shopper usage flag.
type CartLine struct {
	UnitPrice     decimal.Decimal
	ServerPrice   *decimal.Decimal
	UsageExceeded bool
	Campaigns     []Campaign
}

// Resolution is the price the shopper should see.
type Resolution struct {
	Original        decimal.Decimal
	Display         decimal.Decimal
	HasDiscount     bool
	Percent         int
	OriginalRange   *Range
	DiscountedRange *Range
	Badge           *Badge
}

// Resolve computes the display price for one product at the given instant.
//
// When the backend supplied a usable discounted price it wins over any
// client-side campaign evaluation; otherwise the first active voucher under
// the first active campaign is applied. An empty price set yields a zero
// resolution, signalling "pricing unavailable" to the caller.
func Resolve(now time.Time, in Input) Resolution {
	if len(in.UnitPrices) == 0 {
		return Resolution{}
	}

	// A capped-out redemption must never show a discounted figure,
	// whether server- or client-computed.
	if in.UsageExceeded {
		q := Aggregate(in.UnitPrices, nil)
		return Resolution{
			Original:      q.Original,
			Display:       q.Display,
			OriginalRange: q.OriginalRange,
		}
	}

	if sp, ok := usableServerPrice(in); ok {
		return resolveServer(in, sp)
	}

	campaign, voucher := selectVoucher(now, in.Campaigns)
	q := Aggregate(in.UnitPrices, voucher)

	res := Resolution{
		Original:        q.Original,
		Display:         q.Display,
		OriginalRange:   q.OriginalRange,
		DiscountedRange: q.DiscountedRange,
	}
	res.HasDiscount = res.Display.LessThan(res.Original) && res.Display.IsPositive()
	res.Percent = discountPercent(res, voucher)
	if res.HasDiscount {
		res.Badge = campaignBadge(campaign, in.Campaigns)
	}
	return res
}

// ResolveCartLine resolves a single cart line.
func ResolveCartLine(now time.Time, line CartLine) Resolution {
	return Resolve(now, Input{
		UnitPrices:    []decimal.Decimal{line.UnitPrice},
		ServerPrice:   line.ServerPrice,
		UsageExceeded: line.UsageExceeded,
		Campaigns:     line.Campaigns,
	})
}

// usableServerPrice reports whether the backend-precomputed price should be
// trusted. A server value equal to the original price is ambiguous — it is
// treated as "no server discount" and client evaluation proceeds.
func usableServerPrice(in Input) (decimal.Decimal, bool) {
	if in.ServerPrice == nil {
		return zero, false
	}
	original := Aggregate(in.UnitPrices, nil).Original
	if in.ServerPrice.Equal(original) {
		return zero, false
	}
	return *in.ServerPrice, true
}

// resolveServer builds the resolution around a trusted server price. The
// value is still clamped into [0, original], and a zero value gets the same
// wipeout fallback as client-side aggregation.
func resolveServer(in Input, sp decimal.Decimal) Resolution {
	q := Aggregate(in.UnitPrices, nil)

	display := floorAtZero(sp)
	if display.GreaterThan(q.Original) {
		display = q.Original
	}
	if display.IsZero() && q.Original.IsPositive() {
		display = q.Original
	}

	res := Resolution{
		Original:      q.Original,
		Display:       display,
		OriginalRange: q.OriginalRange,
	}
	res.HasDiscount = display.LessThan(q.Original) && display.IsPositive()
	res.Percent = discountPercent(res, nil)
	if res.HasDiscount {
		res.Badge = campaignBadge(nil, in.Campaigns)
	}
	return res
}

// selectVoucher picks the first active, applicable voucher inside the first
// active campaign. There is no fallthrough to later campaigns when the
// first active one holds no usable voucher.
func selectVoucher(now time.Time, campaigns []Campaign) (*Campaign, *Voucher) {
	for i := range campaigns {
		c := &campaigns[i]
		if !c.ActiveAt(now) {
			continue
		}
		for j := range c.Vouchers {
			v := &c.Vouchers[j]
			if v.ActiveAt(now, c) && v.Applicable() {
				return c, v
			}
		}
		return c, nil
	}
	return nil, nil
}

// discountPercent derives the integer 0..100 percentage for a resolution.
// An uncapped percent voucher already knows its percentage; everything else
// is derived from the final prices.
func discountPercent(res Resolution, v *Voucher) int {
	if !res.HasDiscount || !res.Original.IsPositive() {
		return 0
	}
	if v != nil && v.Type == VoucherPercent && !v.MaxDiscount.IsPositive() {
		return clampPercent(int(v.Percent.Round(0).IntPart()))
	}
	p := res.Original.Sub(res.Display).Div(res.Original).Mul(hundred).Round(0)
	return clampPercent(int(p.IntPart()))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// campaignBadge picks badge metadata: the selected campaign's badge, or —
// when the discount came from the server — the first supplied campaign
// carrying one.
func campaignBadge(selected *Campaign, campaigns []Campaign) *Badge {
	if selected != nil {
		return selected.Badge
	}
	for i := range campaigns {
		if campaigns[i].Badge != nil {
			return campaigns[i].Badge
		}
	}
	return nil
}
