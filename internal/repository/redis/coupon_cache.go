package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"myTrendyMart/domain"
	"myTrendyMart/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// couponSource is the authoritative store behind the cache.
type couponSource interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	IncrementUsage(ctx context.Context, couponID uint) (bool, error)
	GetUsedCount(ctx context.Context, couponID uint) (int, error)
}

// CouponCache is a read-through cache for coupon metadata with a short TTL.
// The usage counter is never trusted from cache: a hit on a capped coupon
// re-reads used_count from the authoritative store so the usage-cap checks
// always see the live value.
type CouponCache struct {
	client *redis.Client
	source couponSource
	ttl    time.Duration
}

func NewCouponCache(client *redis.Client, source couponSource, ttl time.Duration) *CouponCache {
	return &CouponCache{
		client: client,
		source: source,
		ttl:    ttl,
	}
}

func couponKey(code string) string {
	return fmt.Sprintf("coupon:code:%s", code)
}

func (c *CouponCache) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	code = domain.NormalizeCouponCode(code)
	key := couponKey(code)

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var coupon domain.Coupon
		if err := json.Unmarshal([]byte(val), &coupon); err == nil {
			if coupon.UsageLimit != nil {
				used, err := c.source.GetUsedCount(ctx, coupon.ID)
				if err != nil {
					return nil, err
				}
				coupon.UsedCount = used
			}
			return &coupon, nil
		}
		// Corrupt entry; fall through to the store.
		logger.Warn("dropping unreadable coupon cache entry", "key", key)
		_ = c.client.Del(ctx, key).Err()
	} else if err != redis.Nil {
		// Cache down is not fatal; serve from the store.
		logger.Warn("coupon cache read failed", "error", err)
	}

	coupon, err := c.source.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, nil
	}

	if raw, err := json.Marshal(coupon); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			logger.Warn("coupon cache write failed", "error", err)
		}
	}

	return coupon, nil
}

// IncrementUsage always goes straight to the authoritative store.
func (c *CouponCache) IncrementUsage(ctx context.Context, couponID uint) (bool, error) {
	return c.source.IncrementUsage(ctx, couponID)
}

// Invalidate drops the cached entry, used by the operator console after an
// update or delete.
func (c *CouponCache) Invalidate(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, couponKey(domain.NormalizeCouponCode(code))).Err(); err != nil {
		return fmt.Errorf("failed to invalidate coupon cache: %w", err)
	}
	return nil
}
