// Command promo-ingest loads gzipped campaign feed exports into the
// database. Feeds are JSON-lines files named campaigns-*.json.gz; regional
// exports overlap, so voucher IDs are deduplicated across files with a
// bloom filter before writing.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/shopfront/promo-pricing/internal/ingest"
	"github.com/shopfront/promo-pricing/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing campaigns-*.json.gz feed files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("campaign ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("campaign ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "campaigns-*.json.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no campaigns-*.json.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Feed files stream concurrently into a single writer goroutine that
	// owns deduplication and all database writes.
	campaigns := make(chan ingest.Campaign, 256)

	g, gctx := errgroup.WithContext(ctx)
	w := newWriter(pool)
	g.Go(func() error {
		return w.consume(gctx, campaigns)
	})

	readers, rctx := errgroup.WithContext(gctx)
	for _, f := range files {
		readers.Go(streamFeedFile(rctx, f, campaigns))
	}
	readErr := readers.Wait()
	close(campaigns)

	if err := g.Wait(); err != nil {
		return err
	}
	if readErr != nil {
		return readErr
	}

	slog.Info("ingest summary",
		slog.Int("campaigns", w.campaignCount),
		slog.Int("vouchers", w.voucherCount),
		slog.Int("duplicate_vouchers", w.duplicates),
	)
	return nil
}

// streamFeedFile parses one gzipped JSON-lines feed and sends campaigns
// on out.
func streamFeedFile(ctx context.Context, path string, out chan<- ingest.Campaign) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var lines int
		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 0, 1<<16), 1<<22)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			c, err := ingest.ParseCampaign(line)
			if err != nil {
				return errors.Wrapf(err, "%s line %d", filepath.Base(path), lines+1)
			}

			select {
			case out <- c:
			case <-ctx.Done():
				return ctx.Err()
			}

			lines++
			if lines%progressEvery == 0 {
				slog.Info("feed progress", slog.String("file", filepath.Base(path)), slog.Int("lines", lines))
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("feed complete", slog.String("file", filepath.Base(path)), slog.Int("lines", lines))
		return nil
	}
}

// writer owns all database writes and cross-feed deduplication.
type writer struct {
	pool *pgxpool.Pool
	seen *bloom.BloomFilter

	campaignIDs   map[string]struct{}
	campaignCount int
	voucherCount  int
	duplicates    int
}

func newWriter(pool *pgxpool.Pool) *writer {
	return &writer{
		pool:        pool,
		seen:        bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		campaignIDs: make(map[string]struct{}),
	}
}

func (w *writer) consume(ctx context.Context, campaigns <-chan ingest.Campaign) error {
	for {
		select {
		case c, ok := <-campaigns:
			if !ok {
				return nil
			}
			if err := w.write(ctx, c); err != nil {
				return errors.Wrapf(err, "write campaign %s", c.ID)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *writer) write(ctx context.Context, c ingest.Campaign) error {
	if _, ok := w.campaignIDs[c.ID]; ok {
		// Same campaign from another regional feed: merge vouchers only.
		return w.writeVouchers(ctx, c)
	}
	w.campaignIDs[c.ID] = struct{}{}

	_, err := w.pool.Exec(ctx, `
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
		c.SlotStart, c.SlotEnd, c.SlotStatus, c.BadgeLabel, c.BadgeColor, c.Priority,
	)
	if err != nil {
		return errors.Wrap(err, "upsert campaign")
	}

	// Re-ingest replaces the campaign's voucher set.
	if _, err := w.pool.Exec(ctx, `DELETE FROM vouchers WHERE campaign_id = $1`, c.ID); err != nil {
		return errors.Wrap(err, "clear vouchers")
	}

	for _, p := range c.Products {
		_, err := w.pool.Exec(ctx, `
			INSERT INTO campaign_products (campaign_id, product_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, c.ID, p)
		if err != nil {
			return errors.Wrapf(err, "link product %s", p)
		}
	}

	w.campaignCount++
	return w.writeVouchers(ctx, c)
}

func (w *writer) writeVouchers(ctx context.Context, c ingest.Campaign) error {
	rows := make([][]any, 0, len(c.Vouchers))
	for i, v := range c.Vouchers {
		if w.seen.TestString(v.ID) {
			w.duplicates++
			continue
		}
		w.seen.AddString(v.ID)

		rows = append(rows, []any{
			v.ID, c.ID, v.Type,
			v.Percent, v.Value, v.MaxDiscount,
			v.StartAt, v.EndAt, v.SlotStart, v.SlotEnd,
			nilIfEmpty(v.SlotStatus), nilIfEmpty(v.Status),
			i,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	n, err := w.pool.CopyFrom(ctx,
		pgx.Identifier{"vouchers"},
		[]string{
			"id", "campaign_id", "type",
			"discount_percent", "discount_value", "max_discount_value",
			"start_at", "end_at", "slot_start_at", "slot_end_at",
			"slot_status", "status", "position",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return errors.Wrap(err, "copy vouchers")
	}

	w.voucherCount += int(n)
	return nil
}

func kindOrDefault(kind string) string {
	if kind == "" {
		return "generic"
	}
	return kind
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
