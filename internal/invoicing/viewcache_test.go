package invoicing

import (
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, h *harness) (*ViewCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewViewCache(h.svc, client, time.Minute, slog.Default()), mr
}

func TestViewCacheMissBuildsAndStores(t *testing.T) {
	h := newHarness()
	cache, mr := newTestCache(t, h)

	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	view, err := cache.Get(actorCtx(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.DocumentNumber, view.Invoice.DocumentNumber)
	require.Equal(t, "Acme Traders", view.Customer.Name)
	require.Len(t, view.Journal, 1)
	require.Contains(t, view.DisplayTotal, "2,360")

	require.True(t, mr.Exists(viewKey(inv.ID)), "view must be cached after a miss")
}

func TestViewCacheServesStaleUntilInvalidated(t *testing.T) {
	h := newHarness()
	cache, mr := newTestCache(t, h)

	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	first, err := cache.Get(actorCtx(), inv.ID)
	require.NoError(t, err)
	require.True(t, first.Invoice.TotalAmount.Equal(d("2360")))

	// Mutations go through the service, which invalidates the key.
	h.advance(time.Hour)
	_, err = h.svc.Edit(actorCtx(), inv.ID, editRequest())
	require.NoError(t, err)
	require.False(t, mr.Exists(viewKey(inv.ID)), "edit must drop the cached view")

	fresh, err := cache.Get(actorCtx(), inv.ID)
	require.NoError(t, err)
	require.True(t, fresh.Invoice.TotalAmount.Equal(d("472")), "rebuilt view reflects the edit")
}

func TestViewCacheDegradesWhenRedisDown(t *testing.T) {
	h := newHarness()
	cache, mr := newTestCache(t, h)

	inv, err := h.svc.Create(actorCtx(), mixedCartRequest())
	require.NoError(t, err)

	mr.Close()
	view, err := cache.Get(actorCtx(), inv.ID)
	require.NoError(t, err, "cache failure must degrade to a direct build")
	require.Equal(t, inv.DocumentNumber, view.Invoice.DocumentNumber)
}
