package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopfront/promo-pricing/internal/domain/pricing"
)

var _ pricing.Repository = (*CampaignRepository)(nil)

// CampaignRepository implements pricing.Repository backed by PostgreSQL.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository returns a CampaignRepository that uses the given pool.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

// ListForProduct returns the campaigns applicable to a product in priority
// order, each with its vouchers in declared order. Products without
// campaigns yield an empty slice, not an error.
func (r *CampaignRepository) ListForProduct(ctx context.Context, productID string) ([]pricing.Campaign, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.kind, c.status,
		        c.start_at, c.end_at,
		        c.slot_start_at, c.slot_end_at, c.slot_status,
		        c.badge_label, c.badge_color
		   FROM campaigns c
		   JOIN campaign_products cp ON cp.campaign_id = c.id
		  WHERE cp.product_id = $1
		  ORDER BY c.priority, c.id`, productID)
	if err != nil {
		return nil, errors.Wrapf(err, "query campaigns for %q", productID)
	}
	defer rows.Close()

	var campaigns []pricing.Campaign
	index := make(map[string]int)
	for rows.Next() {
		var (
			c                      pricing.Campaign
			status, slotStatus     *string
			slotStart, slotEnd     *time.Time
			start, end             *time.Time
			badgeLabel, badgeColor *string
		)
		err := rows.Scan(&c.ID, &c.Name, &c.Kind, &status,
			&start, &end, &slotStart, &slotEnd, &slotStatus,
			&badgeLabel, &badgeColor)
		if err != nil {
			return nil, errors.Wrap(err, "scan campaign")
		}

		c.Status = parseStatus(status)
		c.Window = toWindow(start, end)
		c.Slot = toSlot(slotStart, slotEnd, slotStatus)
		if badgeLabel != nil {
			c.Badge = &pricing.Badge{Label: *badgeLabel, Color: deref(badgeColor)}
		}

		index[c.ID] = len(campaigns)
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate campaigns")
	}
	if len(campaigns) == 0 {
		return nil, nil
	}

	ids := make([]string, len(campaigns))
	for i, c := range campaigns {
		ids[i] = c.ID
	}

	vrows, err := r.pool.Query(ctx,
		`SELECT campaign_id, id, type,
		        discount_percent, discount_value, max_discount_value,
		        start_at, end_at,
		        slot_start_at, slot_end_at, slot_status,
		        status
		   FROM vouchers
		  WHERE campaign_id = ANY($1)
		  ORDER BY campaign_id, position, id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "query vouchers")
	}
	defer vrows.Close()

	for vrows.Next() {
		var (
			campaignID              string
			v                       pricing.Voucher
			percent, amount, maxCap *decimal.Decimal
			status, slotStatus      *string
			start, end              *time.Time
			slotStart, slotEnd      *time.Time
		)
		err := vrows.Scan(&campaignID, &v.ID, &v.Type,
			&percent, &amount, &maxCap,
			&start, &end, &slotStart, &slotEnd, &slotStatus,
			&status)
		if err != nil {
			return nil, errors.Wrap(err, "scan voucher")
		}

		v.Percent = derefDecimal(percent)
		v.Amount = derefDecimal(amount)
		v.MaxDiscount = derefDecimal(maxCap)
		v.Window = toWindow(start, end)
		v.Slot = toSlot(slotStart, slotEnd, slotStatus)
		v.Status = parseStatus(status)

		i, ok := index[campaignID]
		if !ok {
			continue
		}
		campaigns[i].Vouchers = append(campaigns[i].Vouchers, v)
	}
	if err := vrows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate vouchers")
	}

	return campaigns, nil
}

func parseStatus(s *string) pricing.Status {
	if s == nil {
		return pricing.StatusUnspecified
	}
	switch *s {
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

func toSlot(start, end *time.Time, status *string) *pricing.Slot {
	if start == nil && end == nil && status == nil {
		return nil
	}
	return &pricing.Slot{
		Window: toWindow(start, end),
		Status: parseStatus(status),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefDecimal(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
