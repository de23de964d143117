package invoicing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ViewCache fronts BuildView with a redis cache. Concurrent misses for the
// same invoice collapse into one storage round trip via singleflight.
type ViewCache struct {
	svc    *Service
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewViewCache wires the cache to a lifecycle service and registers itself
// as the service's invalidator so mutations drop stale views.
func NewViewCache(svc *Service, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *ViewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &ViewCache{svc: svc, rdb: rdb, ttl: ttl, logger: logger}
	svc.WithViewCache(c)
	return c
}

func viewKey(invoiceID int64) string {
	return fmt.Sprintf("invoice:view:%d", invoiceID)
}

// Get returns the cached view, rebuilding and re-caching on a miss. Cache
// errors degrade to a direct build; the view is never wrong, at worst slow.
func (c *ViewCache) Get(ctx context.Context, invoiceID int64) (*InvoiceView, error) {
	key := viewKey(invoiceID)
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var view InvoiceView
		if err := json.Unmarshal(raw, &view); err == nil {
			return &view, nil
		}
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("view cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		view, err := c.svc.BuildView(ctx, invoiceID)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(view); err == nil {
			if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.logger.Warn("view cache write failed", slog.String("key", key), slog.Any("error", err))
			}
		}
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*InvoiceView), nil
}

// Invalidate drops the cached view after a mutation.
func (c *ViewCache) Invalidate(ctx context.Context, invoiceID int64) {
	if err := c.rdb.Del(ctx, viewKey(invoiceID)).Err(); err != nil {
		c.logger.Warn("view cache invalidation failed",
			slog.Int64("invoice_id", invoiceID), slog.Any("error", err))
	}
}
