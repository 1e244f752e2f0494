package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electrocart_back_end/internal/models"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestNewRedis(t *testing.T) {
	_, mr := setupTestRedis(t)

	client, err := NewRedis(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	client.Close()

	_, err = NewRedis(context.Background(), "", "")
	assert.Error(t, err)
}

func TestProductCache_RoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewProductCache(client)
	ctx := context.Background()
	filter := models.ProductFilter{Featured: true}

	v, err := c.ListVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	_, ok := c.GetProductList(ctx, v, filter)
	assert.False(t, ok)

	c.SetProductList(ctx, v, filter, []*models.Product{{ID: "p1", Name: "Phone", Slug: "phone", Stock: 3}})

	got, ok := c.GetProductList(ctx, v, filter)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "phone", got[0].Slug)
	assert.Equal(t, 3, got[0].Stock)

	_, ok = c.GetProductList(ctx, v, models.ProductFilter{Category: "audio"})
	assert.False(t, ok)

	mr.FastForward(ProductCacheTTL + time.Second)
	_, ok = c.GetProductList(ctx, v, filter)
	assert.False(t, ok)
}

func TestProductCache_CategoryKeepsCase(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewProductCache(client)
	ctx := context.Background()

	c.SetProductList(ctx, 0, models.ProductFilter{Category: "Phones"}, []*models.Product{{ID: "p1"}})

	_, ok := c.GetProductList(ctx, 0, models.ProductFilter{Category: "phones"})
	assert.False(t, ok)
	_, ok = c.GetProductList(ctx, 0, models.ProductFilter{Category: "Phones"})
	assert.True(t, ok)
}

func TestProductCache_Invalidate(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewProductCache(client)
	ctx := context.Background()

	c.SetProductList(ctx, 0, models.ProductFilter{}, []*models.Product{{ID: "p1"}})
	c.SetProductList(ctx, 0, models.ProductFilter{Category: "audio"}, []*models.Product{{ID: "p2"}})
	mr.Set("unrelated", "keep")

	c.InvalidateProducts(ctx)

	v, err := c.ListVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, ok := c.GetProductList(ctx, v, models.ProductFilter{})
	assert.False(t, ok)
	_, ok = c.GetProductList(ctx, v, models.ProductFilter{Category: "audio"})
	assert.False(t, ok)
	assert.True(t, mr.Exists("unrelated"))
}

func TestProductCache_StaleWriteNotServed(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewProductCache(client)
	ctx := context.Background()

	before, err := c.ListVersion(ctx)
	require.NoError(t, err)

	// une écriture invalide entre la lecture du stockage et la mise en cache
	c.InvalidateProducts(ctx)
	c.SetProductList(ctx, before, models.ProductFilter{}, []*models.Product{{ID: "stale"}})

	now, err := c.ListVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, now)
	_, ok := c.GetProductList(ctx, now, models.ProductFilter{})
	assert.False(t, ok)
}

func TestCounters(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewCounters(client)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := c.Hit(ctx, "login_attempts:a@x.com", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	n, err := c.Get(ctx, "login_attempts:a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mr.FastForward(time.Minute + time.Second)
	n, err = c.Get(ctx, "login_attempts:a@x.com")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Zero(t, c.Cooldown(ctx, "login_cooldown:a@x.com"))
	require.NoError(t, c.StartCooldown(ctx, "login_cooldown:a@x.com", 15*time.Minute))
	assert.Greater(t, c.Cooldown(ctx, "login_cooldown:a@x.com"), 14*time.Minute)

	require.NoError(t, c.Reset(ctx, "login_cooldown:a@x.com"))
	assert.Zero(t, c.Cooldown(ctx, "login_cooldown:a@x.com"))
}
