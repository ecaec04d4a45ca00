// Package rediscache decorates the campaign repository with a read-through
// Redis cache. Campaign data changes rarely compared to how often product
// cards are priced, so a short TTL takes most of the read load off
// PostgreSQL without affecting resolution results.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shopfront/promo-pricing/internal/domain/pricing"
)

var _ pricing.Repository = (*CampaignRepository)(nil)

// CampaignRepository wraps an inner pricing.Repository with a Redis cache.
// Cache failures are logged and fall through to the inner repository; the
// cache must never make pricing unavailable.
type CampaignRepository struct {
	inner pricing.Repository
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCampaignRepository builds the cache decorator.
func NewCampaignRepository(inner pricing.Repository, rdb *redis.Client, ttl time.Duration) *CampaignRepository {
	return &CampaignRepository{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(productID string) string {
	return "promo:campaigns:" + productID
}

// ListForProduct serves campaigns from Redis when present, loading and
// caching them from the inner repository otherwise.
func (r *CampaignRepository) ListForProduct(ctx context.Context, productID string) ([]pricing.Campaign, error) {
	key := cacheKey(productID)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var campaigns []pricing.Campaign
		if err := json.Unmarshal(raw, &campaigns); err == nil {
			return campaigns, nil
		}
		// Corrupt entry: drop it and reload.
		r.rdb.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		zctx.From(ctx).Warn("campaign cache read failed",
			zap.String("product_id", productID), zap.Error(err))
	}

	campaigns, err := r.inner.ListForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(campaigns); err == nil {
		if err := r.rdb.Set(ctx, key, raw, r.ttl).Err(); err != nil {
			zctx.From(ctx).Warn("campaign cache write failed",
				zap.String("product_id", productID), zap.Error(err))
		}
	}

	return campaigns, nil
}

// Invalidate removes the cached campaigns for a product, e.g. after a feed
// ingest touched its promotions.
func (r *CampaignRepository) Invalidate(ctx context.Context, productID string) error {
	if err := r.rdb.Del(ctx, cacheKey(productID)).Err(); err != nil {
		return errors.Wrap(err, "invalidate campaign cache")
	}
	return nil
}
