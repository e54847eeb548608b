package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogsql "github.com/jcmexdev/storefront/internal/catalog-service/adapters/sqlstore"
	catalog "github.com/jcmexdev/storefront/internal/catalog-service/domain"
	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	ordersql "github.com/jcmexdev/storefront/internal/order-service/adapters/sqlstore"
	orderapp "github.com/jcmexdev/storefront/internal/order-service/app"
	"github.com/jcmexdev/storefront/internal/order-service/domain"
	"github.com/jcmexdev/storefront/internal/pkg/apperr"
	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/pkg/database/dbtest"
	"github.com/jcmexdev/storefront/internal/storefront/cart"
	"github.com/jcmexdev/storefront/internal/storefront/checkout"
	"github.com/jcmexdev/storefront/internal/storefront/session"
)

type fakeOrders struct {
	mu        sync.Mutex
	created   []domain.CreateOrderInput
	keys      []string
	cancelled []string
	err       error
}

func (f *fakeOrders) CreateOrder(_ context.Context, key string, in domain.CreateOrderInput) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	f.keys = append(f.keys, key)
	return &domain.Order{ID: "order-1", Total: in.TotalPrice, OrderStatus: domain.StatusPending}, nil
}

func (f *fakeOrders) CancelOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}

// failingCheckoutSave wraps a real store and fails the first checkout save.
type failingCheckoutSave struct {
	*session.Store
	failed bool
}

func (f *failingCheckoutSave) SaveCheckout(ctx context.Context, sid string, c *checkout.Checkout) error {
	if !f.failed {
		f.failed = true
		return errors.New("redis unavailable")
	}
	return f.Store.SaveCheckout(ctx, sid, c)
}

func newCache(t *testing.T) cache.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisCacheFromClient(client, "storefront")
}

func newSessionStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(newCache(t), time.Hour)
}

func readyInfo() checkout.Info {
	return checkout.Info{
		Email: "ada@example.com", Country: "UK", FirstName: "Ada", LastName: "Lovelace",
		Address: "1 Analytical St", City: "London", PostalCode: "N1", Phone: "555-0100",
	}
}

// seedSession stores a cart of 2 x 10.00 + 1 x 5.50 with 4.00 shipping and a
// checkout at the payment stage.
func seedSession(t *testing.T, store *session.Store, sid string) {
	t.Helper()
	ctx := context.Background()

	c := cart.New()
	c.AddProduct(cart.Product{ID: "p-1", Name: "Mug", Price: decimal.RequireFromString("10.00")})
	c.AddQuantity("p-1")
	c.AddProduct(cart.Product{ID: "p-2", Name: "Sticker", Price: decimal.RequireFromString("5.50")})
	c.SetShippingPrice(decimal.RequireFromString("4"))
	require.NoError(t, store.SaveCart(ctx, sid, c))

	co := checkout.New()
	co.SetCheckoutInfo(readyInfo())
	require.NoError(t, co.SetStageShipping())
	co.SetShippingMethod("express")
	require.NoError(t, co.SetStagePayment())
	require.NoError(t, store.SaveCheckout(ctx, sid, co))
}

func TestSubmitCreatesOrderAndClearsSession(t *testing.T) {
	store := newSessionStore(t)
	seedSession(t, store, "sid-1")
	orders := &fakeOrders{}
	ctx := context.Background()

	order, sagaID, err := NewSubmitter(orders, store, nil).Submit(ctx, "sid-1", "key-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.NotEmpty(t, sagaID)

	require.Len(t, orders.created, 1)
	in := orders.created[0]
	// 25.50 + 5% tax (1.275) + 4 shipping = 30.775, rounded to cents.
	assert.Equal(t, 30.78, in.TotalPrice)
	assert.Equal(t, "Ada Lovelace", in.FullName)
	assert.Equal(t, "1 Analytical St, London, N1, UK", in.Address)
	assert.Equal(t, "express", in.ShippingMethod)
	assert.Equal(t, "555-0100", in.PhoneNumber)
	assert.Equal(t, []domain.ItemInput{{ProductID: "p-1", Quantity: 2}, {ProductID: "p-2", Quantity: 1}}, in.Items)
	assert.Equal(t, []string{"key-1"}, orders.keys)

	c, err := store.LoadCart(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	co, err := store.LoadCheckout(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StageNone, co.Stage())
}

func TestSubmitFailureCancelsOrderAndRestoresCart(t *testing.T) {
	store := newSessionStore(t)
	seedSession(t, store, "sid-1")
	orders := &fakeOrders{}
	log := &memoryLog{}
	ctx := context.Background()

	_, sagaID, err := NewSubmitter(orders, &failingCheckoutSave{Store: store}, log).Submit(ctx, "sid-1", "")
	require.Error(t, err)
	assert.NotEmpty(t, sagaID)

	assert.Equal(t, []string{"order-1"}, orders.cancelled)

	c, err := store.LoadCart(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 3, c.TotalItems())
	assert.True(t, c.ShippingPrice().Equal(decimal.NewFromInt(4)))

	co, err := store.LoadCheckout(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StagePayment, co.Stage())

	statuses := log.statuses()
	assert.Equal(t, sagalog.StatusFailed, statuses[len(statuses)-1])

	started := log.entries[0]
	assert.Equal(t, sagaID, started.SagaID)
	var payload domain.CreateOrderInput
	require.NoError(t, json.Unmarshal([]byte(started.Payload), &payload))
	assert.Equal(t, 30.78, payload.TotalPrice)
	assert.Len(t, payload.Items, 2)
}

func TestSubmitRetryAfterCompensationPlacesNewOrder(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	products := catalogsql.NewRepository(db)
	for _, id := range []string{"p-1", "p-2"} {
		now := time.Now().UTC()
		require.NoError(t, products.Create(ctx, &catalog.Product{ID: id, Name: id, Price: 1, CreatedAt: now, UpdatedAt: now}))
	}
	orderRepo := ordersql.NewRepository(db)
	orders := orderapp.NewService(orderRepo, nil, newCache(t))

	store := newSessionStore(t)
	seedSession(t, store, "sid-1")
	flaky := &failingCheckoutSave{Store: store}

	_, _, err := NewSubmitter(orders, flaky, nil).Submit(ctx, "sid-1", "key-1")
	require.Error(t, err)

	order, _, err := NewSubmitter(orders, flaky, nil).Submit(ctx, "sid-1", "key-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.OrderStatus)

	all, err := orderRepo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	statuses := map[string]domain.OrderStatus{}
	for _, o := range all {
		statuses[o.ID] = o.OrderStatus
	}
	assert.Equal(t, domain.StatusPending, statuses[order.ID])
	var cancelled int
	for _, st := range statuses {
		if st == domain.StatusCancelled {
			cancelled++
		}
	}
	assert.Equal(t, 1, cancelled)

	c, err := store.LoadCart(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestSubmitOrderRejectionLeavesSessionUntouched(t *testing.T) {
	store := newSessionStore(t)
	seedSession(t, store, "sid-1")
	orders := &fakeOrders{err: apperr.NotFound("products not found: p-2")}
	ctx := context.Background()

	_, _, err := NewSubmitter(orders, store, nil).Submit(ctx, "sid-1", "")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Empty(t, orders.cancelled)

	c, err := store.LoadCart(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 3, c.TotalItems())
}

func TestSubmitPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong stage", func(t *testing.T) {
		store := newSessionStore(t)
		seedSession(t, store, "sid-1")
		co, err := store.LoadCheckout(ctx, "sid-1")
		require.NoError(t, err)
		require.NoError(t, co.SetStageShipping())
		require.NoError(t, store.SaveCheckout(ctx, "sid-1", co))

		_, _, err = NewSubmitter(&fakeOrders{}, store, nil).Submit(ctx, "sid-1", "")
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.ErrorIs(t, err, checkout.ErrInvalidTransition)
	})

	t.Run("empty cart", func(t *testing.T) {
		store := newSessionStore(t)
		seedSession(t, store, "sid-1")
		require.NoError(t, store.SaveCart(ctx, "sid-1", cart.New()))

		_, _, err := NewSubmitter(&fakeOrders{}, store, nil).Submit(ctx, "sid-1", "")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("incomplete info", func(t *testing.T) {
		store := newSessionStore(t)
		seedSession(t, store, "sid-1")
		co, err := store.LoadCheckout(ctx, "sid-1")
		require.NoError(t, err)
		info := readyInfo()
		info.Phone = ""
		co.SetCheckoutInfo(info)
		require.NoError(t, store.SaveCheckout(ctx, "sid-1", co))

		_, _, err = NewSubmitter(&fakeOrders{}, store, nil).Submit(ctx, "sid-1", "")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "phone")
	})

	t.Run("no shipping method", func(t *testing.T) {
		store := newSessionStore(t)
		seedSession(t, store, "sid-1")
		co, err := store.LoadCheckout(ctx, "sid-1")
		require.NoError(t, err)
		co.SetShippingMethod("")
		require.NoError(t, store.SaveCheckout(ctx, "sid-1", co))

		_, _, err = NewSubmitter(&fakeOrders{}, store, nil).Submit(ctx, "sid-1", "")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}
