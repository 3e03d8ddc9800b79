package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ajebo/storefront-api/apperr"
	"github.com/ajebo/storefront-api/checkout"
	"github.com/ajebo/storefront-api/gateway"
	"github.com/ajebo/storefront-api/models"
	"github.com/ajebo/storefront-api/store"
	"github.com/ajebo/storefront-api/testutil"
)

type env struct {
	db        *gorm.DB
	store     *store.Store
	gw        *testutil.FakeGateway
	initiator *checkout.Initiator
	product   *models.Product
}

func newEnv(t *testing.T, addr *models.Address) *env {
	t.Helper()
	db := testutil.NewDB(t)
	s := store.New(db)
	gw := testutil.NewFakeGateway()
	e := &env{
		db:        db,
		store:     s,
		gw:        gw,
		initiator: checkout.NewInitiator(s, gw, "https://shop.example.com/"),
		product:   testutil.SeedProduct(t, db, "Ankara Tote", 500000, 3),
	}
	testutil.SeedUser(t, db, "u1", addr)
	testutil.AddToCart(t, db, "u1", e.product.ID, 2)
	return e
}

func withAddress() *models.Address {
	a := testutil.ValidAddress()
	return &a
}

func orderCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func TestInitiateCreatesPendingOrder(t *testing.T) {
	e := newEnv(t, withAddress())

	res, err := e.initiator.Initiate(context.Background(), checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Reference)
	assert.Equal(t, "https://checkout.paystack.test/"+res.Reference, res.AuthorizationURL)

	order, err := e.store.Orders.FindByCheckoutKey(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), order.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.CheckoutStatusInitiated, order.CheckoutStatus)
	assert.Equal(t, models.DeliveryStatusProcessing, order.DeliveryStatus)
	assert.Equal(t, "Lekki", order.ShipCity)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(500000), order.Items[0].UnitPrice)
	assert.Equal(t, "Ankara Tote", order.Items[0].ProductName)
	require.NotNil(t, order.Payment)
	assert.Equal(t, res.Reference, order.Payment.PaystackRef)
	assert.Equal(t, order.Reference, order.Payment.Reference)
	assert.Equal(t, models.PaymentStatusInitiated, order.Payment.Status)

	// Initiation never touches stock or the cart.
	assert.Equal(t, 3, testutil.Stock(t, e.db, e.product.ID))
	assert.Equal(t, int64(1), testutil.CartSize(t, e.db, "u1"))

	calls := e.gw.InitializeCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(1000000), calls[0].Amount)
	assert.Equal(t, "u1@example.com", calls[0].Email)
	assert.Equal(t, "https://shop.example.com/checkout/verify?reference="+res.Reference, calls[0].CallbackURL)
	assert.Equal(t, order.Reference, calls[0].Metadata.OrderRef)
	assert.Len(t, calls[0].Metadata.CustomFields, 4)
}

func TestInitiateSnapshotsPrice(t *testing.T) {
	e := newEnv(t, withAddress())
	ctx := context.Background()

	_, err := e.initiator.Initiate(ctx, checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.NoError(t, err)
	require.NoError(t, e.db.Model(e.product).Update("price", 900000).Error)

	order, err := e.store.Orders.FindByCheckoutKey(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(500000), order.Items[0].UnitPrice)
	assert.Equal(t, int64(1000000), order.TotalAmount)
}

func TestInitiateRetryReturnsSameURL(t *testing.T) {
	e := newEnv(t, withAddress())
	ctx := context.Background()

	first, err := e.initiator.Initiate(ctx, checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.NoError(t, err)
	second, err := e.initiator.Initiate(ctx, checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, e.gw.InitializeCalls(), 1)
	assert.Equal(t, int64(1), orderCount(t, e.db))
}

func TestInitiateAfterFailedPaymentOpensNewSession(t *testing.T) {
	e := newEnv(t, withAddress())
	ctx := context.Background()

	first, err := e.initiator.Initiate(ctx, checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.NoError(t, err)
	order, err := e.store.Orders.FindByCheckoutKey(ctx, "k1")
	require.NoError(t, err)
	require.NoError(t, e.store.Payments.RecordFailure(ctx, order.Payment.ID, `{"status":"failed"}`))

	second, err := e.initiator.Initiate(ctx, checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Reference, second.Reference)
	assert.NotEqual(t, first.AuthorizationURL, second.AuthorizationURL)
	assert.Equal(t, "https://checkout.paystack.test/"+second.Reference, second.AuthorizationURL)

	calls := e.gw.InitializeCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, second.Reference, calls[1].Reference)

	order, err = e.store.Orders.FindByCheckoutKey(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutStatusInitiated, order.CheckoutStatus)
	assert.Equal(t, models.PaymentStatusInitiated, order.Payment.Status)
	assert.Equal(t, second.Reference, order.Payment.PaystackRef)
	assert.Equal(t, int64(1), orderCount(t, e.db))

	// The new session is reused until it fails too.
	third, err := e.initiator.Initiate(ctx, checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, second, third)
	assert.Len(t, e.gw.InitializeCalls(), 2)
}

func TestInitiateConcurrentSameKey(t *testing.T) {
	e := newEnv(t, withAddress())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.initiator.Initiate(context.Background(), checkout.Request{UserID: "u1", CheckoutKey: "k1"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), orderCount(t, e.db))
	var payments int64
	require.NoError(t, e.db.Model(&models.Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)
}

func TestInitiateMissingCity(t *testing.T) {
	addr := testutil.ValidAddress()
	addr.City = ""
	e := newEnv(t, &addr)

	_, err := e.initiator.Initiate(context.Background(), checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "city", ae.Field)
	assert.Zero(t, orderCount(t, e.db))
	assert.Empty(t, e.gw.InitializeCalls())
}

func TestInitiateMissingAddress(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.initiator.Initiate(context.Background(), checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, orderCount(t, e.db))
}

func TestInitiateCartChecks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, e *env)
		kind   apperr.Kind
		code   string
	}{
		{
			name:   "inactive product",
			mutate: func(t *testing.T, e *env) { require.NoError(t, e.db.Model(e.product).Update("active", false).Error) },
			kind:   apperr.KindValidation,
		},
		{
			name:   "out of stock",
			mutate: func(t *testing.T, e *env) { require.NoError(t, e.db.Model(e.product).Update("stock", 0).Error) },
			kind:   apperr.KindConflict,
			code:   "out_of_stock",
		},
		{
			name:   "quantity above stock",
			mutate: func(t *testing.T, e *env) { require.NoError(t, e.db.Model(e.product).Update("stock", 1).Error) },
			kind:   apperr.KindConflict,
			code:   "insufficient_stock",
		},
		{
			name:   "empty cart",
			mutate: func(t *testing.T, e *env) { require.NoError(t, e.db.Where("1 = 1").Delete(&models.CartItem{}).Error) },
			kind:   apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, withAddress())
			tt.mutate(t, e)

			_, err := e.initiator.Initiate(context.Background(), checkout.Request{UserID: "u1", CheckoutKey: "k1"})
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			if tt.code != "" {
				assert.True(t, apperr.Is(err, tt.code))
			}
			assert.Zero(t, orderCount(t, e.db))
		})
	}
}

func TestInitiateMissingCheckoutKey(t *testing.T) {
	e := newEnv(t, withAddress())
	_, err := e.initiator.Initiate(context.Background(), checkout.Request{UserID: "u1", CheckoutKey: "  "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestInitiateAlreadyPaid(t *testing.T) {
	e := newEnv(t, withAddress())
	ctx := context.Background()

	_, err := e.initiator.Initiate(ctx, checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.NoError(t, err)
	order, err := e.store.Orders.FindByCheckoutKey(ctx, "k1")
	require.NoError(t, err)
	_, _, err = e.store.Payments.RecordSuccess(ctx, order.Payment.ID, "{}", order.CreatedAt)
	require.NoError(t, err)

	_, err = e.initiator.Initiate(ctx, checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, "already_paid"))
	assert.Equal(t, 409, apperr.HTTPStatus(err))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, order.Reference, ae.Reference)
}

func TestInitiateForeignKey(t *testing.T) {
	e := newEnv(t, withAddress())
	ctx := context.Background()
	testutil.SeedUser(t, e.db, "u2", withAddress())
	testutil.AddToCart(t, e.db, "u2", e.product.ID, 1)

	_, err := e.initiator.Initiate(ctx, checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.NoError(t, err)

	_, err = e.initiator.Initiate(ctx, checkout.Request{UserID: "u2", CheckoutKey: "k1"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestInitiateDuplicateReferenceRetriesOnce(t *testing.T) {
	e := newEnv(t, withAddress())
	calls := 0
	e.gw.InitializeFunc = func(req gateway.InitializeRequest) (*gateway.Initialization, error) {
		calls++
		if calls == 1 {
			return nil, gateway.ErrDuplicateReference
		}
		return &gateway.Initialization{AuthorizationURL: "https://pay/" + req.Reference, Reference: req.Reference, Raw: []byte("{}")}, nil
	}

	res, err := e.initiator.Initiate(context.Background(), checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.NoError(t, err)

	reqs := e.gw.InitializeCalls()
	require.Len(t, reqs, 2)
	assert.NotEqual(t, reqs[0].Reference, reqs[1].Reference)
	assert.Equal(t, reqs[1].Reference, res.Reference)

	// The reference that succeeded is what reconciliation will look up.
	payment, err := e.store.Payments.FindByGatewayRef(context.Background(), res.Reference)
	require.NoError(t, err)
	assert.Equal(t, res.AuthorizationURL, payment.AuthorizationURL)
}

func TestInitiateGatewayFailure(t *testing.T) {
	e := newEnv(t, withAddress())
	ctx := context.Background()
	e.gw.InitializeFunc = func(gateway.InitializeRequest) (*gateway.Initialization, error) {
		return nil, errors.Join(gateway.ErrUnavailable, errors.New("connection refused"))
	}

	_, err := e.initiator.Initiate(ctx, checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
	assert.Equal(t, 500, apperr.HTTPStatus(err))

	order, err := e.store.Orders.FindByCheckoutKey(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.CheckoutStatusFailed, order.CheckoutStatus)

	// Retrying with the same key reuses the order once the gateway recovers.
	e.gw.InitializeFunc = nil
	res, err := e.initiator.Initiate(ctx, checkout.Request{UserID: "u1", CheckoutKey: "k1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AuthorizationURL)
	assert.Equal(t, int64(1), orderCount(t, e.db))
}
