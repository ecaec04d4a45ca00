package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyVoucher(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		voucher *Voucher
		want    string
	}{
		{
			name:    "nil voucher leaves price unchanged",
			price:   "200000",
			voucher: nil,
			want:    "200000",
		},
		{
			name:    "percent 20 off",
			price:   "200000",
			voucher: &Voucher{Type: VoucherPercent, Percent: d("20")},
			want:    "160000",
		},
		{
			name:    "percent 50 capped at 50000",
			price:   "200000",
			voucher: &Voucher{Type: VoucherPercent, Percent: d("50"), MaxDiscount: d("50000")},
			want:    "150000",
		},
		{
			name:    "cap above computed amount has no effect",
			price:   "100000",
			voucher: &Voucher{Type: VoucherPercent, Percent: d("10"), MaxDiscount: d("999999")},
			want:    "90000",
		},
		{
			name:    "fixed amount off",
			price:   "80000",
			voucher: &Voucher{Type: VoucherFixed, Amount: d("10000")},
			want:    "70000",
		},
		{
			name:    "fixed amount larger than price clamps to zero",
			price:   "5000",
			voucher: &Voucher{Type: VoucherFixed, Amount: d("9000")},
			want:    "0",
		},
		{
			name:    "percent 100 clamps to zero",
			price:   "5000",
			voucher: &Voucher{Type: VoucherPercent, Percent: d("100")},
			want:    "0",
		},
		{
			name:    "zero price passes through",
			price:   "0",
			voucher: &Voucher{Type: VoucherPercent, Percent: d("20")},
			want:    "0",
		},
		{
			name:    "negative percent is a no-op",
			price:   "100000",
			voucher: &Voucher{Type: VoucherPercent, Percent: d("-10")},
			want:    "100000",
		},
		{
			name:    "unknown type is a no-op",
			price:   "100000",
			voucher: &Voucher{Type: "loyalty", Percent: d("10")},
			want:    "100000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyVoucher(d(tt.price), tt.voucher)
			assert.True(t, d(tt.want).Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

// Discounted prices never exceed the input price, and a cap bounds the
// absolute amount taken off.
func TestApplyVoucherProperties(t *testing.T) {
	prices := []string{"0", "1", "999", "200000", "35000.50"}
	percents := []string{"1", "15", "50", "99", "100"}

	for _, p := range prices {
		for _, pct := range percents {
			price := d(p)
			v := &Voucher{Type: VoucherPercent, Percent: d(pct)}
			got := ApplyVoucher(price, v)
			assert.True(t, got.LessThanOrEqual(price),
				"percent %s of %s: %s exceeds input", pct, p, got)
			assert.False(t, got.IsNegative())

			capped := &Voucher{Type: VoucherPercent, Percent: d(pct), MaxDiscount: d("100")}
			gotCapped := ApplyVoucher(price, capped)
			assert.True(t, price.Sub(gotCapped).LessThanOrEqual(d("100")),
				"cap exceeded for percent %s of %s", pct, p)
		}
	}
}
