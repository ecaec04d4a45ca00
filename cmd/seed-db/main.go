// Command seed-db loads a catalog fixture (products, variants, campaigns
// and vouchers) into the database for local development and demos.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopfront/promo-pricing/internal/storage/postgres"
)

type catalogJSON struct {
	Products  []productJSON  `json:"products"`
	Campaigns []campaignJSON `json:"campaigns"`
}

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Variants []variantJSON   `json:"variants"`
}

type variantJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type campaignJSON struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	Status   string     `json:"status"`
	StartAt  *time.Time `json:"startAt"`
	EndAt    *time.Time `json:"endAt"`
	Slot     *slotJSON  `json:"slot"`
	Badge    *badgeJSON `json:"badge"`
	Priority int        `json:"priority"`
	Products []string   `json:"products"`
	Vouchers []struct {
		ID          string          `json:"id"`
		Type        string          `json:"type"`
		Percent     decimal.Decimal `json:"discountPercent"`
		Value       decimal.Decimal `json:"discountValue"`
		MaxDiscount decimal.Decimal `json:"maxDiscountValue"`
		StartAt     *time.Time      `json:"startAt"`
		EndAt       *time.Time      `json:"endAt"`
		Slot        *slotJSON       `json:"slot"`
		Status      string          `json:"status"`
	} `json:"vouchers"`
}

type slotJSON struct {
	StartAt *time.Time `json:"startAt"`
	EndAt   *time.Time `json:"endAt"`
	Status  string     `json:"status"`
}

type badgeJSON struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog fixture")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	slog.Info("reading catalog fixture", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}
	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, catalog.Products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCampaigns(ctx, pool, catalog.Campaigns); err != nil {
		return errors.Wrap(err, "seed campaigns")
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, products []productJSON) error {
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, name, price) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price`,
			p.ID, p.Name, p.Price,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		for i, v := range p.Variants {
			_, err := pool.Exec(ctx, `
				INSERT INTO product_variants (id, product_id, name, price, position)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name, price = EXCLUDED.price, position = EXCLUDED.position`,
				v.ID, p.ID, v.Name, v.Price, i,
			)
			if err != nil {
				return errors.Wrapf(err, "upsert variant %s", v.ID)
			}
		}
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func seedCampaigns(ctx context.Context, pool *pgxpool.Pool, campaigns []campaignJSON) error {
	for _, c := range campaigns {
		var slotStart, slotEnd *time.Time
		var slotStatus string
		if c.Slot != nil {
			slotStart, slotEnd, slotStatus = c.Slot.StartAt, c.Slot.EndAt, c.Slot.Status
		}
		var badgeLabel, badgeColor string
		if c.Badge != nil {
			badgeLabel, badgeColor = c.Badge.Label, c.Badge.Color
		}

		_, err := pool.Exec(ctx, `
			INSERT INTO campaigns (id, name, kind, status, start_at, end_at,
			                       slot_start_at, slot_end_at, slot_status,
			                       badge_label, badge_color, priority)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, kind = EXCLUDED.kind, status = EXCLUDED.status,
				start_at = EXCLUDED.start_at, end_at = EXCLUDED.end_at,
				slot_start_at = EXCLUDED.slot_start_at, slot_end_at = EXCLUDED.slot_end_at,
				slot_status = EXCLUDED.slot_status,
				badge_label = EXCLUDED.badge_label, badge_color = EXCLUDED.badge_color,
				priority = EXCLUDED.priority`,
			c.ID, c.Name, kindOrDefault(c.Kind), c.Status, c.StartAt, c.EndAt,
			slotStart, slotEnd, slotStatus, badgeLabel, badgeColor, c.Priority,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert campaign %s", c.ID)
		}

		for _, p := range c.Products {
			_, err := pool.Exec(ctx, `
				INSERT INTO campaign_products (campaign_id, product_id)
				VALUES ($1, $2) ON CONFLICT DO NOTHING`, c.ID, p)
			if err != nil {
				return errors.Wrapf(err, "link product %s to campaign %s", p, c.ID)
			}
		}

		for i, v := range c.Vouchers {
			var vSlotStart, vSlotEnd *time.Time
			var vSlotStatus string
			if v.Slot != nil {
				vSlotStart, vSlotEnd, vSlotStatus = v.Slot.StartAt, v.Slot.EndAt, v.Slot.Status
			}

			_, err := pool.Exec(ctx, `
				INSERT INTO vouchers (id, campaign_id, type,
				                      discount_percent, discount_value, max_discount_value,
				                      start_at, end_at, slot_start_at, slot_end_at,
				                      slot_status, status, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''), $13)
				ON CONFLICT (id) DO UPDATE SET
					campaign_id = EXCLUDED.campaign_id, type = EXCLUDED.type,
					discount_percent = EXCLUDED.discount_percent,
					discount_value = EXCLUDED.discount_value,
					max_discount_value = EXCLUDED.max_discount_value,
					start_at = EXCLUDED.start_at, end_at = EXCLUDED.end_at,
					slot_start_at = EXCLUDED.slot_start_at, slot_end_at = EXCLUDED.slot_end_at,
					slot_status = EXCLUDED.slot_status, status = EXCLUDED.status,
					position = EXCLUDED.position`,
				v.ID, c.ID, v.Type, v.Percent, v.Value, v.MaxDiscount,
				v.StartAt, v.EndAt, vSlotStart, vSlotEnd, vSlotStatus, v.Status, i,
			)
			if err != nil {
				return errors.Wrapf(err, "upsert voucher %s", v.ID)
			}
		}
	}

	slog.Info("campaigns seeded", slog.Int("count", len(campaigns)))
	return nil
}

func kindOrDefault(kind string) string {
	if kind == "" {
		return "generic"
	}
	return kind
}
