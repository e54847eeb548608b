package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/checkout"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(cache.NewRedisCacheFromClient(client, "storefront"), time.Hour), mr
}

func TestCartRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	c := cart.New()
	c.AddProduct(cart.Product{ID: "p-1", Name: "Mug", Price: decimal.NewFromInt(12)})
	c.AddQuantity("p-1")
	require.NoError(t, store.SaveCart(ctx, "sid-1", c))

	assert.True(t, mr.Exists("storefront:cart-storage:sid-1"))
	assert.Equal(t, time.Hour, mr.TTL("storefront:cart-storage:sid-1"))

	loaded, err := store.LoadCart(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.TotalItems())
	assert.True(t, loaded.TotalPrice().Equal(decimal.NewFromInt(24)))
}

func TestLoadMissingReturnsFreshState(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	c, err := store.LoadCart(ctx, "nobody")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	co, err := store.LoadCheckout(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, checkout.StageAddress, co.Stage())

	p, err := store.LoadProfile(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCorruptEntryStartsFresh(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("storefront:cart-storage:sid-1", "{not json"))
	require.NoError(t, mr.Set("storefront:checkout-storage:sid-1", `{"version":1,"stage":"Teleport"}`))

	c, err := store.LoadCart(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	co, err := store.LoadCheckout(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StageAddress, co.Stage())
}

func TestCheckoutRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	co := checkout.New()
	require.NoError(t, co.SetStageShipping())
	co.SetShippingMethod("express")
	require.NoError(t, store.SaveCheckout(ctx, "sid-1", co))

	loaded, err := store.LoadCheckout(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StageShipping, loaded.Stage())
	assert.Equal(t, "express", loaded.ShippingMethod())
}

func TestProfileLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveProfile(ctx, "sid-1", Profile{ID: "u-1", Email: "ada@example.com", Role: "USER"}))
	p, err := store.LoadProfile(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "u-1", p.ID)

	require.NoError(t, store.ClearProfile(ctx, "sid-1"))
	p, err = store.LoadProfile(ctx, "sid-1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSessionsAreIsolated(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	c := cart.New()
	c.AddProduct(cart.Product{ID: "p-1", Price: decimal.NewFromInt(1)})
	require.NoError(t, store.SaveCart(ctx, "sid-1", c))

	other, err := store.LoadCart(ctx, "sid-2")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}

func TestMissingSessionID(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.LoadCart(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, store.SaveCart(context.Background(), "", cart.New()), ErrNoSession)
}
