// Package ingest parses marketing campaign feed exports. Feeds are
// JSON-lines files, one campaign object per line, as produced by the
// promotion planning tool.
package ingest

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Campaign is one feed line: a promotion campaign with its vouchers and
// the product IDs it applies to.
type Campaign struct {
	ID         string
	Name       string
	Kind       string
	Status     string
	StartAt    *time.Time
	EndAt      *time.Time
	SlotStart  *time.Time
	SlotEnd    *time.Time
	SlotStatus string
	BadgeLabel string
	BadgeColor string
	Priority   int
	Products   []string
	Vouchers   []Voucher
}

// Voucher is one voucher entry inside a feed campaign.
type Voucher struct {
	ID          string
	Type        string
	Percent     decimal.Decimal
	Value       decimal.Decimal
	MaxDiscount decimal.Decimal
	StartAt     *time.Time
	EndAt       *time.Time
	SlotStart   *time.Time
	SlotEnd     *time.Time
	SlotStatus  string
	Status      string
}

// ParseCampaign decodes a single feed line.
func ParseCampaign(data []byte) (Campaign, error) {
	var c Campaign
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return strInto(d, &c.ID)
		case "name":
			return strInto(d, &c.Name)
		case "kind":
			return strInto(d, &c.Kind)
		case "status":
			return strInto(d, &c.Status)
		case "startAt":
			return timeInto(d, &c.StartAt)
		case "endAt":
			return timeInto(d, &c.EndAt)
		case "slot":
			return decodeSlot(d, &c.SlotStart, &c.SlotEnd, &c.SlotStatus)
		case "badge":
			return decodeBadge(d, &c)
		case "priority":
			n, err := d.Int()
			c.Priority = n
			return err
		case "products":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := d.Str()
				if err != nil {
					return err
				}
				c.Products = append(c.Products, p)
				return nil
			})
		case "vouchers":
			return d.Arr(func(d *jx.Decoder) error {
				v, err := decodeVoucher(d)
				if err != nil {
					return err
				}
				c.Vouchers = append(c.Vouchers, v)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return Campaign{}, errors.Wrap(err, "decode campaign")
	}
	if c.ID == "" {
		return Campaign{}, errors.New("campaign id is empty")
	}
	return c, nil
}

func decodeVoucher(d *jx.Decoder) (Voucher, error) {
	var v Voucher
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return strInto(d, &v.ID)
		case "type":
			return strInto(d, &v.Type)
		case "discountPercent":
			return numInto(d, &v.Percent)
		case "discountValue":
			return numInto(d, &v.Value)
		case "maxDiscountValue":
			return numInto(d, &v.MaxDiscount)
		case "startAt":
			return timeInto(d, &v.StartAt)
		case "endAt":
			return timeInto(d, &v.EndAt)
		case "slot":
			return decodeSlot(d, &v.SlotStart, &v.SlotEnd, &v.SlotStatus)
		case "status":
			return strInto(d, &v.Status)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return Voucher{}, errors.Wrap(err, "decode voucher")
	}
	if v.ID == "" {
		return Voucher{}, errors.New("voucher id is empty")
	}
	return v, nil
}

func decodeSlot(d *jx.Decoder, start, end **time.Time, status *string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "startAt":
			return timeInto(d, start)
		case "endAt":
			return timeInto(d, end)
		case "status":
			return strInto(d, status)
		default:
			return d.Skip()
		}
	})
}

func decodeBadge(d *jx.Decoder, c *Campaign) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "label":
			return strInto(d, &c.BadgeLabel)
		case "color":
			return strInto(d, &c.BadgeColor)
		default:
			return d.Skip()
		}
	})
}

func strInto(d *jx.Decoder, dst *string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func numInto(d *jx.Decoder, dst *decimal.Decimal) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	n, err := d.Num()
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		return errors.Wrap(err, "parse decimal")
	}
	*dst = v
	return nil
}

func timeInto(d *jx.Decoder, dst **time.Time) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return errors.Wrapf(err, "parse time %q", s)
	}
	*dst = &t
	return nil
}
