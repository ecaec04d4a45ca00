package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dp(v string) *decimal.Decimal {
	x := d(v)
	return &x
}

func windowCampaign(vouchers ...Voucher) Campaign {
	return Campaign{
		ID:       "c1",
		Status:   StatusActive,
		Window:   openWindow(),
		Badge:    &Badge{Label: "SALE", Color: "#e53935"},
		Vouchers: vouchers,
	}
}

func TestResolveClientSide(t *testing.T) {
	tests := []struct {
		name         string
		input        Input
		wantDisplay  string
		wantDiscount bool
		wantPercent  int
	}{
		{
			name: "percent 20 voucher under active campaign",
			input: Input{
				UnitPrices: ds("200000"),
				Campaigns:  []Campaign{windowCampaign(Voucher{Type: VoucherPercent, Percent: d("20")})},
			},
			wantDisplay:  "160000",
			wantDiscount: true,
			wantPercent:  20,
		},
		{
			name: "percent 50 with cap 50000",
			input: Input{
				UnitPrices: ds("200000"),
				Campaigns: []Campaign{windowCampaign(
					Voucher{Type: VoucherPercent, Percent: d("50"), MaxDiscount: d("50000")},
				)},
			},
			wantDisplay:  "150000",
			wantDiscount: true,
			wantPercent:  25,
		},
		{
			name: "no campaigns means no discount",
			input: Input{
				UnitPrices: ds("200000"),
			},
			wantDisplay:  "200000",
			wantDiscount: false,
		},
		{
			name: "closed slot deactivates campaign despite open window",
			input: Input{
				UnitPrices: ds("200000"),
				Campaigns: []Campaign{{
					Kind:     KindFlashSale,
					Status:   StatusActive,
					Window:   openWindow(),
					Slot:     &Slot{Window: closedWindow(), Status: StatusActive},
					Badge:    &Badge{Label: "FLASH", Color: "#ff9800"},
					Vouchers: []Voucher{{Type: VoucherPercent, Percent: d("30")}},
				}},
			},
			wantDisplay:  "200000",
			wantDiscount: false,
		},
		{
			name: "first active campaign wins over later ones",
			input: Input{
				UnitPrices: ds("100000"),
				Campaigns: []Campaign{
					windowCampaign(Voucher{Type: VoucherPercent, Percent: d("10")}),
					windowCampaign(Voucher{Type: VoucherPercent, Percent: d("50")}),
				},
			},
			wantDisplay:  "90000",
			wantDiscount: true,
			wantPercent:  10,
		},
		{
			name: "inactive first campaign is skipped",
			input: Input{
				UnitPrices: ds("100000"),
				Campaigns: []Campaign{
					{Status: StatusInactive, Window: openWindow(), Vouchers: []Voucher{{Type: VoucherPercent, Percent: d("10")}}},
					windowCampaign(Voucher{Type: VoucherPercent, Percent: d("50")}),
				},
			},
			wantDisplay:  "50000",
			wantDiscount: true,
			wantPercent:  50,
		},
		{
			name: "active campaign without usable vouchers yields no discount",
			input: Input{
				UnitPrices: ds("100000"),
				Campaigns: []Campaign{
					windowCampaign(Voucher{Type: VoucherPercent}),
					windowCampaign(Voucher{Type: VoucherPercent, Percent: d("50")}),
				},
			},
			wantDisplay:  "100000",
			wantDiscount: false,
		},
		{
			name: "voucher expired inside active campaign",
			input: Input{
				UnitPrices: ds("100000"),
				Campaigns: []Campaign{windowCampaign(
					Voucher{Type: VoucherPercent, Percent: d("10"), Window: closedWindow()},
				)},
			},
			wantDisplay:  "100000",
			wantDiscount: false,
		},
		{
			name: "full wipeout treated as no discount",
			input: Input{
				UnitPrices: ds("5000"),
				Campaigns:  []Campaign{windowCampaign(Voucher{Type: VoucherFixed, Amount: d("9000")})},
			},
			wantDisplay:  "5000",
			wantDiscount: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(fixedNow, tt.input)

			assert.True(t, d(tt.wantDisplay).Equal(got.Display),
				"display: expected %s, got %s", tt.wantDisplay, got.Display)
			assert.Equal(t, tt.wantDiscount, got.HasDiscount)
			assert.Equal(t, tt.wantPercent, got.Percent)
			assert.True(t, got.Display.LessThanOrEqual(got.Original))
			if !tt.wantDiscount {
				assert.Nil(t, got.Badge, "no badge may be shown without a discount")
				assert.Zero(t, got.Percent)
			}
		})
	}
}

func TestResolveVariantRanges(t *testing.T) {
	got := Resolve(fixedNow, Input{
		UnitPrices: ds("80000", "120000"),
		Campaigns:  []Campaign{windowCampaign(Voucher{Type: VoucherFixed, Amount: d("10000")})},
	})

	assert.True(t, d("70000").Equal(got.Display))
	assert.True(t, got.HasDiscount)
	assertRange(t, &Range{Min: d("80000"), Max: d("120000")}, got.OriginalRange)
	assertRange(t, &Range{Min: d("70000"), Max: d("110000")}, got.DiscountedRange)
}

func TestResolveServerPrecedence(t *testing.T) {
	tests := []struct {
		name         string
		input        Input
		wantDisplay  string
		wantDiscount bool
		wantPercent  int
	}{
		{
			name: "server price wins over client evaluation",
			input: Input{
				UnitPrices:  ds("100000"),
				ServerPrice: dp("75000"),
				Campaigns:   []Campaign{windowCampaign(Voucher{Type: VoucherPercent, Percent: d("10")})},
			},
			wantDisplay:  "75000",
			wantDiscount: true,
			wantPercent:  25,
		},
		{
			name: "server price equal to original falls back to client path",
			input: Input{
				UnitPrices:  ds("100000"),
				ServerPrice: dp("100000"),
				Campaigns:   []Campaign{windowCampaign(Voucher{Type: VoucherPercent, Percent: d("10")})},
			},
			wantDisplay:  "90000",
			wantDiscount: true,
			wantPercent:  10,
		},
		{
			name: "server price above original is clamped to original",
			input: Input{
				UnitPrices:  ds("100000"),
				ServerPrice: dp("130000"),
			},
			wantDisplay:  "100000",
			wantDiscount: false,
		},
		{
			name: "server price of zero is invalid and ignored",
			input: Input{
				UnitPrices:  ds("100000"),
				ServerPrice: dp("0"),
			},
			wantDisplay:  "100000",
			wantDiscount: false,
		},
		{
			name: "negative server price is clamped before the wipeout guard",
			input: Input{
				UnitPrices:  ds("100000"),
				ServerPrice: dp("-500"),
			},
			wantDisplay:  "100000",
			wantDiscount: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(fixedNow, tt.input)

			assert.True(t, d(tt.wantDisplay).Equal(got.Display),
				"display: expected %s, got %s", tt.wantDisplay, got.Display)
			assert.Equal(t, tt.wantDiscount, got.HasDiscount)
			assert.Equal(t, tt.wantPercent, got.Percent)
		})
	}
}

func TestResolveUsageExceeded(t *testing.T) {
	got := Resolve(fixedNow, Input{
		UnitPrices:    ds("100"),
		ServerPrice:   dp("50"),
		UsageExceeded: true,
		Campaigns:     []Campaign{windowCampaign(Voucher{Type: VoucherPercent, Percent: d("20")})},
	})

	assert.True(t, d("100").Equal(got.Display), "expected 100, got %s", got.Display)
	assert.False(t, got.HasDiscount)
	assert.Zero(t, got.Percent)
	assert.Nil(t, got.Badge)
}

func TestResolveCartLine(t *testing.T) {
	got := ResolveCartLine(fixedNow, CartLine{
		UnitPrice:   d("100000"),
		ServerPrice: dp("80000"),
	})

	require.True(t, got.HasDiscount)
	assert.True(t, d("80000").Equal(got.Display))
	assert.Equal(t, 20, got.Percent)
}

func TestResolveEmptyPriceSet(t *testing.T) {
	got := Resolve(fixedNow, Input{})

	assert.True(t, got.Original.IsZero())
	assert.True(t, got.Display.IsZero())
	assert.False(t, got.HasDiscount)
	assert.Nil(t, got.Badge)
}

func TestResolveBadge(t *testing.T) {
	t.Run("selected campaign badge attached with discount", func(t *testing.T) {
		got := Resolve(fixedNow, Input{
			UnitPrices: ds("100000"),
			Campaigns:  []Campaign{windowCampaign(Voucher{Type: VoucherPercent, Percent: d("20")})},
		})
		require.NotNil(t, got.Badge)
		assert.Equal(t, "SALE", got.Badge.Label)
		assert.Equal(t, "#e53935", got.Badge.Color)
	})

	t.Run("server discount uses first supplied campaign badge", func(t *testing.T) {
		got := Resolve(fixedNow, Input{
			UnitPrices:  ds("100000"),
			ServerPrice: dp("60000"),
			Campaigns:   []Campaign{{Badge: &Badge{Label: "MEGA", Color: "#3f51b5"}}},
		})
		require.NotNil(t, got.Badge)
		assert.Equal(t, "MEGA", got.Badge.Label)
	})

	t.Run("rounded derived percent", func(t *testing.T) {
		got := Resolve(fixedNow, Input{
			UnitPrices:  ds("80000"),
			ServerPrice: dp("70000"),
		})
		// 12.5% rounds to 13.
		assert.Equal(t, 13, got.Percent)
	})
}
