package pricing

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// ApplyVoucher returns the unit price after applying a single voucher.
// Exactly one voucher is ever applied per unit price; stacking is not
// modelled. Malformed vouchers (unknown type, non-positive values) leave
// the price unchanged, and the result is never negative.
func ApplyVoucher(price decimal.Decimal, v *Voucher) decimal.Decimal {
	if v == nil || !price.IsPositive() {
		return price
	}

	switch v.Type {
	case VoucherPercent:
		if !v.Percent.IsPositive() {
			return price
		}
		amount := price.Mul(v.Percent).Div(hundred)
		if v.MaxDiscount.IsPositive() {
			amount = decimal.Min(amount, v.MaxDiscount)
		}
		return floorAtZero(price.Sub(amount))
	case VoucherFixed:
		if !v.Amount.IsPositive() {
			return price
		}
		return floorAtZero(price.Sub(v.Amount))
	default:
		return price
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
