package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is a backend-declared on/off flag. Promotion feeds routinely omit
// the field, and omission means "not explicitly turned off", so the zero
// value counts as enabled.
type Status int8

const (
	StatusUnspecified Status = iota
	StatusActive
	StatusInactive
)

// Enabled reports whether the flag permits activity. Only an explicit
// inactive value disables it.
func (s Status) Enabled() bool {
	return s != StatusInactive
}

// Kind distinguishes campaign families. It affects badge presentation only;
// window precedence is driven by which windows a campaign actually carries.
type Kind string

const (
	KindFlashSale Kind = "flash_sale"
	KindMegaSale  Kind = "mega_sale"
	KindGeneric   Kind = "generic"
)

// Slot is a narrower, usually rotating, time window with its own on/off
// flag. Flash-sale campaigns use it to mark "live this hour" independently
// of their overall published dates.
type Slot struct {
	Window *Window
	Status Status
}

// Badge is display metadata for an active promotion. It has no effect on
// the computed prices.
type Badge struct {
	Label string
	Color string
}

// VoucherType enumerates the supported discount strategies.
type VoucherType string

const (
	// VoucherPercent discounts a percentage of the unit price, optionally
	// capped at an absolute amount.
	VoucherPercent VoucherType = "percent"
	// VoucherFixed subtracts a fixed amount from the unit price.
	VoucherFixed VoucherType = "fixed"
)

// Campaign is a promotional grouping owning an ordered list of vouchers.
type Campaign struct {
	ID       string
	Name     string
	Kind     Kind
	Status   Status
	Window   *Window
	Slot     *Slot
	Badge    *Badge
	Vouchers []Voucher
}

// Voucher is a single discount rule nested under a campaign.
type Voucher struct {
	ID          string
	Type        VoucherType
	Percent     decimal.Decimal
	Amount      decimal.Decimal
	MaxDiscount decimal.Decimal
	Window      *Window
	Slot        *Slot
	Status      Status
}

// ActiveAt reports whether the campaign is currently running. The first
// matching window source wins:
//
//  1. an enabled slot window (flash-sale live slot),
//  2. the campaign-level window, gated by the campaign status,
//  3. no window at all: status plus at least one status-enabled voucher.
func (c *Campaign) ActiveAt(now time.Time) bool {
	if c == nil {
		return false
	}
	if c.Slot != nil && c.Slot.Window != nil && c.Slot.Status.Enabled() {
		return c.Slot.Window.Contains(now)
	}
	if c.Window != nil {
		return c.Status.Enabled() && c.Window.Contains(now)
	}
	if !c.Status.Enabled() {
		return false
	}
	for i := range c.Vouchers {
		if c.Vouchers[i].Status.Enabled() {
			return true
		}
	}
	return false
}

// ActiveAt reports whether the voucher is currently usable inside its
// parent campaign. The voucher's own enabled slot window wins over its own
// plain window, which wins over the parent campaign's plain window, which
// wins over "status only".
func (v *Voucher) ActiveAt(now time.Time, parent *Campaign) bool {
	if v == nil || !v.Status.Enabled() {
		return false
	}
	switch {
	case v.Slot != nil && v.Slot.Window != nil && v.Slot.Status.Enabled():
		return v.Slot.Window.Contains(now)
	case v.Window != nil:
		return v.Window.Contains(now)
	case parent != nil && parent.Window != nil:
		return parent.Window.Contains(now)
	default:
		return true
	}
}

// Applicable reports whether the voucher carries a usable discount rule.
// A voucher with a missing or non-positive discount value is a no-op and
// never selected.
func (v *Voucher) Applicable() bool {
	if v == nil {
		return false
	}
	switch v.Type {
	case VoucherPercent:
		return v.Percent.IsPositive()
	case VoucherFixed:
		return v.Amount.IsPositive()
	default:
		return false
	}
}

// Repository provides lookup of the campaigns applicable to a product, in
// the backend-defined priority order.
type Repository interface {
	ListForProduct(ctx context.Context, productID string) ([]Campaign, error)
}
