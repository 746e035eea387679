package services

import (
	"context"
	"testing"
	"time"

	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(testLogger(), client), mr
}

func testSession() *structs.Session {
	return &structs.Session{
		UserID: 7,
		State:  structs.StateWaitingPhone,
		Items: []tables.OrderItem{{
			ProductID: 1, SizeID: 2, ProductName: "Какаши", SizeName: "25см", Price: decimal.RequireFromString("2490.50"),
		}},
		Customer: structs.CustomerDetails{Name: "Иван Петров"},
		Subtotal: decimal.RequireFromString("2490.50"),
	}
}

func exerciseSessionStore(t *testing.T, store SessionStore) {
	ctx := context.Background()

	missing, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Save(ctx, testSession()))

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, structs.StateWaitingPhone, got.State)
	assert.Equal(t, "Иван Петров", got.Customer.Name)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("2490.50")))

	// other users are isolated
	other, err := store.Get(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, store.Delete(ctx, 7))
	gone, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemorySessionStore(t *testing.T) {
	exerciseSessionStore(t, NewMemorySessionStore())
}

func TestMemorySessionStoreCopiesItems(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	session := testSession()
	require.NoError(t, store.Save(ctx, session))

	session.Items[0].ProductName = "changed"
	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Какаши", got.Items[0].ProductName)
}

func TestRedisSessionStore(t *testing.T) {
	cache, _ := newTestCache(t)
	exerciseSessionStore(t, NewRedisSessionStore(cache, time.Hour))
}

func TestRedisSessionStoreExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	store := NewRedisSessionStore(cache, time.Minute)
	require.NoError(t, store.Save(context.Background(), testSession()))

	mr.FastForward(2 * time.Minute)

	got, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRateLimit(t *testing.T) {
	cache, mr := newTestCache(t)
	cfg := testConfig()
	cfg.RateLimit = &structs.RateLimitConfig{Enabled: true, BotPerMinute: 2, HTTPPerMinute: 1}
	limiter := NewRateLimitService(testLogger(), cfg, cache)
	ctx := context.Background()

	assert.True(t, limiter.AllowBotUpdate(ctx, 7))
	assert.True(t, limiter.AllowBotUpdate(ctx, 7))
	assert.False(t, limiter.AllowBotUpdate(ctx, 7))
	assert.True(t, limiter.AllowBotUpdate(ctx, 8))

	assert.True(t, limiter.AllowHTTP(ctx, "10.0.0.1"))
	assert.False(t, limiter.AllowHTTP(ctx, "10.0.0.1"))

	mr.FastForward(2 * time.Minute)
	assert.True(t, limiter.AllowBotUpdate(ctx, 7))
}

func TestRateLimitWithoutCacheAllowsEverything(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = &structs.RateLimitConfig{Enabled: true, BotPerMinute: 1}
	limiter := NewRateLimitService(testLogger(), cfg, nil)

	for range 5 {
		assert.True(t, limiter.AllowBotUpdate(context.Background(), 7))
	}
}
