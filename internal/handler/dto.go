package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopfront/promo-pricing/internal/domain/pricing"
)

// Wire shapes for campaign payloads. Promotion feeds omit fields freely, so
// everything optional is a pointer and absent statuses stay "unspecified".

type windowDTO struct {
	StartAt *time.Time `json:"startAt,omitempty"`
	EndAt   *time.Time `json:"endAt,omitempty"`
}

type slotDTO struct {
	StartAt *time.Time `json:"startAt,omitempty"`
	EndAt   *time.Time `json:"endAt,omitempty"`
	Status  string     `json:"status,omitempty"`
}

type badgeDTO struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

type voucherDTO struct {
	ID               string           `json:"id,omitempty"`
	Type             string           `json:"type"`
	DiscountPercent  *decimal.Decimal `json:"discountPercent,omitempty"`
	DiscountValue    *decimal.Decimal `json:"discountValue,omitempty"`
	MaxDiscountValue *decimal.Decimal `json:"maxDiscountValue,omitempty"`
	StartAt          *time.Time       `json:"startAt,omitempty"`
	EndAt            *time.Time       `json:"endAt,omitempty"`
	Slot             *slotDTO         `json:"slot,omitempty"`
	Status           string           `json:"status,omitempty"`
}

type campaignDTO struct {
	ID       string       `json:"id,omitempty"`
	Name     string       `json:"name,omitempty"`
	Kind     string       `json:"kind,omitempty"`
	Status   string       `json:"status,omitempty"`
	StartAt  *time.Time   `json:"startAt,omitempty"`
	EndAt    *time.Time   `json:"endAt,omitempty"`
	Slot     *slotDTO     `json:"slot,omitempty"`
	Badge    *badgeDTO    `json:"badge,omitempty"`
	Vouchers []voucherDTO `json:"vouchers,omitempty"`
}

type quoteRequest struct {
	UnitPrices            []decimal.Decimal `json:"unitPrices"`
	ServerDiscountPrice   *decimal.Decimal  `json:"serverDiscountPrice,omitempty"`
	CampaignUsageExceeded bool              `json:"campaignUsageExceeded,omitempty"`
	Campaigns             []campaignDTO     `json:"campaigns,omitempty"`
	At                    *time.Time        `json:"at,omitempty"`
}

type rangeDTO struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

type resolutionResponse struct {
	OriginalPrice   decimal.Decimal `json:"originalPrice"`
	DisplayPrice    decimal.Decimal `json:"displayPrice"`
	HasDiscount     bool            `json:"hasDiscount"`
	DiscountPercent int             `json:"discountPercent"`
	OriginalRange   *rangeDTO       `json:"originalRange,omitempty"`
	DiscountedRange *rangeDTO       `json:"discountedRange,omitempty"`
	CampaignBadge   *badgeDTO       `json:"campaignBadge,omitempty"`
}

type cartLineRequest struct {
	ProductID             string           `json:"productId"`
	VariantID             string           `json:"variantId,omitempty"`
	ServerDiscountPrice   *decimal.Decimal `json:"serverDiscountPrice,omitempty"`
	CampaignUsageExceeded bool             `json:"campaignUsageExceeded,omitempty"`
}

type cartPriceRequest struct {
	Lines []cartLineRequest `json:"lines"`
	At    *time.Time        `json:"at,omitempty"`
}

type cartPriceResponse struct {
	Lines []resolutionResponse `json:"lines"`
}

func parseStatus(s string) pricing.Status {
	switch s {
	case "active":
		return pricing.StatusActive
	case "inactive":
		return pricing.StatusInactive
	default:
		return pricing.StatusUnspecified
	}
}

func toWindow(start, end *time.Time) *pricing.Window {
	if start == nil && end == nil {
		return nil
	}
	return &pricing.Window{Start: start, End: end}
}

func toSlot(s *slotDTO) *pricing.Slot {
	if s == nil {
		return nil
	}
	return &pricing.Slot{
		Window: toWindow(s.StartAt, s.EndAt),
		Status: parseStatus(s.Status),
	}
}

func toBadge(b *badgeDTO) *pricing.Badge {
	if b == nil {
		return nil
	}
	return &pricing.Badge{Label: b.Label, Color: b.Color}
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func toVoucher(v voucherDTO) pricing.Voucher {
	return pricing.Voucher{
		ID:          v.ID,
		Type:        pricing.VoucherType(v.Type),
		Percent:     orZero(v.DiscountPercent),
		Amount:      orZero(v.DiscountValue),
		MaxDiscount: orZero(v.MaxDiscountValue),
		Window:      toWindow(v.StartAt, v.EndAt),
		Slot:        toSlot(v.Slot),
		Status:      parseStatus(v.Status),
	}
}

func toCampaigns(dtos []campaignDTO) []pricing.Campaign {
	if len(dtos) == 0 {
		return nil
	}
	out := make([]pricing.Campaign, len(dtos))
	for i, c := range dtos {
		vouchers := make([]pricing.Voucher, len(c.Vouchers))
		for j, v := range c.Vouchers {
			vouchers[j] = toVoucher(v)
		}
		out[i] = pricing.Campaign{
			ID:       c.ID,
			Name:     c.Name,
			Kind:     pricing.Kind(c.Kind),
			Status:   parseStatus(c.Status),
			Window:   toWindow(c.StartAt, c.EndAt),
			Slot:     toSlot(c.Slot),
			Badge:    toBadge(c.Badge),
			Vouchers: vouchers,
		}
	}
	return out
}

func toRangeDTO(r *pricing.Range) *rangeDTO {
	if r == nil {
		return nil
	}
	return &rangeDTO{Min: r.Min, Max: r.Max}
}

func toResponse(res pricing.Resolution) resolutionResponse {
	out := resolutionResponse{
		OriginalPrice:   res.Original,
		DisplayPrice:    res.Display,
		HasDiscount:     res.HasDiscount,
		DiscountPercent: res.Percent,
		OriginalRange:   toRangeDTO(res.OriginalRange),
		DiscountedRange: toRangeDTO(res.DiscountedRange),
	}
	if res.Badge != nil {
		out.CampaignBadge = &badgeDTO{Label: res.Badge.Label, Color: res.Badge.Color}
	}
	return out
}
