package ordersvc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplane/order/internal/payment"
	"github.com/shoplane/order/internal/service/models/money"
	"github.com/shoplane/order/internal/service/models/order"
	"github.com/shoplane/order/internal/service/models/orderitem"
	"github.com/shoplane/order/internal/service/models/outbox"
	"github.com/shoplane/order/internal/service/models/principal"
	"github.com/shoplane/order/internal/service/models/product"
	"github.com/shoplane/order/internal/service/models/user"
	"github.com/shoplane/order/internal/service/pricing"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestCalculator() pricing.Calculator {
	return pricing.Calculator{
		TaxRate:               decimal.RequireFromString("0.15"),
		FreeShippingThreshold: money.MustParse("100.00"),
		ShippingFee:           money.MustParse("10.00"),
	}
}

func newTestService(store *memStore, verifier payment.Verifier) *OrderService {
	return MustNewOrderService(
		WithProductRepository(&fakeProductRepo{store: store}),
		WithUserRepository(&fakeUserRepo{store: store}),
		WithVerifierRegistry(&fakeRegistry{verifier: verifier}),
		WithCalculator(newTestCalculator()),
		WithUnitOfWorkFactory(func() unitOfWork { return &fakeUOW{store: store} }),
		WithClock(func() time.Time { return testTime }),
	)
}

func seedProduct(store *memStore, price string) product.Product {
	p := product.Product{
		ID:    uuid.New(),
		Name:  "Airpods Wireless Bluetooth Headphones",
		Image: "/images/airpods.jpg",
		Price: money.MustParse(price),
	}
	store.products[p.ID] = p

	return p
}

func seedOrder(store *memStore, userID uuid.UUID, total string) order.Order {
	o := order.Order{
		ID:            uuid.New(),
		UserID:        userID,
		PaymentMethod: "PayPal",
		ItemsPrice:    money.MustParse(total),
		TotalPrice:    money.MustParse(total),
		CreatedAt:     testTime,
		UpdatedAt:     testTime,
	}
	store.orders[o.ID] = o

	return o
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeVerifier{})

	_, err := svc.CreateOrder(context.Background(), principal.Principal{UserID: uuid.New()}, CreateOrderModel{})

	require.ErrorIs(t, err, order.ErrNoOrderItems)
	assert.Empty(t, store.orders)
}

func TestCreateOrder_InvalidQuantity(t *testing.T) {
	store := newMemStore()
	p := seedProduct(store, "10.00")
	svc := newTestService(store, &fakeVerifier{})

	_, err := svc.CreateOrder(context.Background(), principal.Principal{UserID: uuid.New()}, CreateOrderModel{
		Items: []orderitem.ClientItem{{ProductID: p.ID, Quantity: 0}},
	})

	require.ErrorIs(t, err, order.ErrInvalidQuantity)
	assert.Empty(t, store.orders)
}

func TestCreateOrder_UnknownProductPersistsNothing(t *testing.T) {
	store := newMemStore()
	known := seedProduct(store, "10.00")
	unknown := uuid.New()
	svc := newTestService(store, &fakeVerifier{})

	_, err := svc.CreateOrder(context.Background(), principal.Principal{UserID: uuid.New()}, CreateOrderModel{
		Items: []orderitem.ClientItem{
			{ProductID: known.ID, Quantity: 1},
			{ProductID: unknown, Quantity: 2},
		},
	})

	var notFound *product.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, unknown, notFound.ID)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
}

func TestCreateOrder_SnapshotsCatalogFieldsAndPrices(t *testing.T) {
	store := newMemStore()
	p := seedProduct(store, "10.00")
	owner := principal.Principal{UserID: uuid.New()}
	svc := newTestService(store, &fakeVerifier{})

	created, err := svc.CreateOrder(context.Background(), owner, CreateOrderModel{
		Items: []orderitem.ClientItem{{ProductID: p.ID, Quantity: 2}},
		ShippingAddress: order.ShippingAddress{
			Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		PaymentMethod: "PayPal",
	})
	require.NoError(t, err)

	require.Len(t, created.OrderItems, 1)
	item := created.OrderItems[0]
	assert.Equal(t, p.Name, item.Name)
	assert.Equal(t, p.Image, item.Image)
	assert.True(t, item.Price.Equal(p.Price), "snapshot price must come from the catalog")
	assert.Equal(t, 2, item.Quantity)

	assert.Equal(t, "20.00", created.ItemsPrice.String())
	assert.Equal(t, "3.00", created.TaxPrice.String())
	assert.Equal(t, "10.00", created.ShippingPrice.String())
	assert.Equal(t, "33.00", created.TotalPrice.String())

	assert.Equal(t, owner.UserID, created.UserID)
	assert.False(t, created.IsPaid)
	assert.False(t, created.IsDelivered)

	require.Len(t, store.events, 1)
	assert.Equal(t, outbox.RoutingKeyOrderCreated, store.events[0].RoutingKey)
}

func TestGetOrderByID_NotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeVerifier{})

	_, err := svc.GetOrderByID(context.Background(), principal.Principal{UserID: uuid.New()}, uuid.New())

	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestGetOrderByID_OwnershipEnforced(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	o := seedOrder(store, owner, "20.00")
	svc := newTestService(store, &fakeVerifier{})

	_, err := svc.GetOrderByID(context.Background(), principal.Principal{UserID: uuid.New()}, o.ID)
	require.ErrorIs(t, err, principal.ErrForbidden)

	got, err := svc.GetOrderByID(context.Background(), principal.Principal{UserID: owner}, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	got, err = svc.GetOrderByID(context.Background(), principal.Principal{UserID: uuid.New(), IsAdmin: true}, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestGetOrderByID_AttachesOwnerProjection(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	store.users[owner] = user.User{ID: owner, Name: "John Doe", Email: "john@example.com"}
	o := seedOrder(store, owner, "20.00")
	svc := newTestService(store, &fakeVerifier{})

	got, err := svc.GetOrderByID(context.Background(), principal.Principal{UserID: owner}, o.ID)
	require.NoError(t, err)

	require.NotNil(t, got.User)
	assert.Equal(t, "John Doe", got.User.Name)
	assert.Equal(t, "john@example.com", got.User.Email)
}

func TestGetMyOrders_ReturnsOnlyOwn(t *testing.T) {
	store := newMemStore()
	mine := uuid.New()
	seedOrder(store, mine, "20.00")
	seedOrder(store, mine, "30.00")
	seedOrder(store, uuid.New(), "40.00")
	svc := newTestService(store, &fakeVerifier{})

	orders, err := svc.GetMyOrders(context.Background(), principal.Principal{UserID: mine})
	require.NoError(t, err)

	assert.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, mine, o.UserID)
	}
}

func TestGetOrders_AdminOnly(t *testing.T) {
	store := newMemStore()
	seedOrder(store, uuid.New(), "20.00")
	svc := newTestService(store, &fakeVerifier{})

	_, err := svc.GetOrders(context.Background(), principal.Principal{UserID: uuid.New()}, order.QueryOrdersModel{})
	require.ErrorIs(t, err, principal.ErrForbidden)

	orders, err := svc.GetOrders(context.Background(), principal.Principal{UserID: uuid.New(), IsAdmin: true}, order.QueryOrdersModel{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestPayOrder_NotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeVerifier{})

	_, err := svc.PayOrder(context.Background(), principal.Principal{UserID: uuid.New()}, uuid.New(),
		PaymentConfirmationModel{TransactionID: "TX1"})

	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestPayOrder_MissingTransactionID(t *testing.T) {
	store := newMemStore()
	o := seedOrder(store, uuid.New(), "20.00")
	svc := newTestService(store, &fakeVerifier{})

	_, err := svc.PayOrder(context.Background(), principal.Principal{UserID: o.UserID}, o.ID,
		PaymentConfirmationModel{})

	require.ErrorIs(t, err, order.ErrMissingTransactionID)
}

func TestPayOrder_NotVerified(t *testing.T) {
	store := newMemStore()
	o := seedOrder(store, uuid.New(), "20.00")
	verifier := &fakeVerifier{results: map[string]payment.Verification{}}
	svc := newTestService(store, verifier)

	_, err := svc.PayOrder(context.Background(), principal.Principal{UserID: o.UserID}, o.ID,
		PaymentConfirmationModel{TransactionID: "TX1"})

	require.ErrorIs(t, err, order.ErrPaymentNotVerified)
	assert.False(t, store.orders[o.ID].IsPaid)
}

func TestPayOrder_AmountMismatchByOneCent(t *testing.T) {
	store := newMemStore()
	o := seedOrder(store, uuid.New(), "20.00")
	verifier := &fakeVerifier{results: map[string]payment.Verification{
		"TX1": {Verified: true, Amount: money.MustParse("19.99")},
	}}
	svc := newTestService(store, verifier)

	_, err := svc.PayOrder(context.Background(), principal.Principal{UserID: o.UserID}, o.ID,
		PaymentConfirmationModel{TransactionID: "TX1"})

	require.ErrorIs(t, err, order.ErrAmountMismatch)
	assert.False(t, store.orders[o.ID].IsPaid, "order must remain unpaid after a mismatch")
	assert.Nil(t, store.orders[o.ID].PaymentResult)
}

func TestPayOrder_Success(t *testing.T) {
	store := newMemStore()
	o := seedOrder(store, uuid.New(), "20.00")
	verifier := &fakeVerifier{results: map[string]payment.Verification{
		"TX1": {Verified: true, Amount: money.MustParse("20.00")},
	}}
	svc := newTestService(store, verifier)

	paid, err := svc.PayOrder(context.Background(), principal.Principal{UserID: o.UserID}, o.ID,
		PaymentConfirmationModel{
			TransactionID: "TX1",
			Status:        "COMPLETED",
			UpdateTime:    "2025-06-01T12:00:00Z",
			PayerEmail:    "payer@example.com",
		})
	require.NoError(t, err)

	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, testTime, *paid.PaidAt)
	require.NotNil(t, paid.PaymentResult)
	assert.Equal(t, "TX1", paid.PaymentResult.TransactionID)
	assert.Equal(t, "COMPLETED", paid.PaymentResult.Status)
	assert.Equal(t, "payer@example.com", paid.PaymentResult.PayerEmail)

	stored := store.orders[o.ID]
	assert.True(t, stored.IsPaid)

	require.Len(t, store.events, 1)
	assert.Equal(t, outbox.RoutingKeyOrderPaid, store.events[0].RoutingKey)
}

func TestPayOrder_SecondConfirmationIsDuplicate(t *testing.T) {
	store := newMemStore()
	o := seedOrder(store, uuid.New(), "20.00")
	verifier := &fakeVerifier{results: map[string]payment.Verification{
		"TX1": {Verified: true, Amount: money.MustParse("20.00")},
	}}
	svc := newTestService(store, verifier)
	p := principal.Principal{UserID: o.UserID}

	_, err := svc.PayOrder(context.Background(), p, o.ID, PaymentConfirmationModel{TransactionID: "TX1"})
	require.NoError(t, err)

	_, err = svc.PayOrder(context.Background(), p, o.ID, PaymentConfirmationModel{TransactionID: "TX1"})
	require.ErrorIs(t, err, order.ErrDuplicateTransaction)

	stored := store.orders[o.ID]
	assert.True(t, stored.IsPaid, "isPaid stays true after a rejected replay")
	require.NotNil(t, stored.PaymentResult)
	assert.Equal(t, "TX1", stored.PaymentResult.TransactionID)
}

func TestPayOrder_TransactionSettlesAtMostOneOrder(t *testing.T) {
	store := newMemStore()
	first := seedOrder(store, uuid.New(), "20.00")
	second := seedOrder(store, uuid.New(), "20.00")
	verifier := &fakeVerifier{results: map[string]payment.Verification{
		"TX1": {Verified: true, Amount: money.MustParse("20.00")},
	}}
	svc := newTestService(store, verifier)

	_, err := svc.PayOrder(context.Background(), principal.Principal{UserID: first.UserID}, first.ID,
		PaymentConfirmationModel{TransactionID: "TX1"})
	require.NoError(t, err)

	_, err = svc.PayOrder(context.Background(), principal.Principal{UserID: second.UserID}, second.ID,
		PaymentConfirmationModel{TransactionID: "TX1"})
	require.ErrorIs(t, err, order.ErrDuplicateTransaction)

	assert.False(t, store.orders[second.ID].IsPaid)
}

func TestPayOrder_ConcurrentConfirmationsSettleOnce(t *testing.T) {
	store := newMemStore()
	verifier := &fakeVerifier{results: map[string]payment.Verification{
		"TX1": {Verified: true, Amount: money.MustParse("20.00")},
	}}
	svc := newTestService(store, verifier)

	orders := make([]order.Order, 8)
	for i := range orders {
		orders[i] = seedOrder(store, uuid.New(), "20.00")
	}

	var wg sync.WaitGroup
	errs := make([]error, len(orders))
	for i := range orders {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.PayOrder(context.Background(),
				principal.Principal{UserID: orders[i].UserID}, orders[i].ID,
				PaymentConfirmationModel{TransactionID: "TX1"})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, order.ErrDuplicateTransaction)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one confirmation may win")

	settled := 0
	for _, o := range store.orders {
		if o.PaymentResult != nil && o.PaymentResult.TransactionID == "TX1" {
			settled++
		}
	}
	assert.Equal(t, 1, settled)
}

func TestDeliverOrder_AdminOnly(t *testing.T) {
	store := newMemStore()
	o := seedOrder(store, uuid.New(), "20.00")
	svc := newTestService(store, &fakeVerifier{})

	_, err := svc.DeliverOrder(context.Background(), principal.Principal{UserID: o.UserID}, o.ID)
	require.ErrorIs(t, err, principal.ErrForbidden)
	assert.False(t, store.orders[o.ID].IsDelivered)
}

func TestDeliverOrder_NotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeVerifier{})

	_, err := svc.DeliverOrder(context.Background(), principal.Principal{IsAdmin: true}, uuid.New())
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestDeliverOrder_SetsFlagsAndEmitsEvent(t *testing.T) {
	store := newMemStore()
	o := seedOrder(store, uuid.New(), "20.00")
	svc := newTestService(store, &fakeVerifier{})

	delivered, err := svc.DeliverOrder(context.Background(), principal.Principal{IsAdmin: true}, o.ID)
	require.NoError(t, err)

	assert.True(t, delivered.IsDelivered)
	require.NotNil(t, delivered.DeliveredAt)
	assert.Equal(t, testTime, *delivered.DeliveredAt)

	// Delivery is not value-bearing: repeating it is allowed and keeps
	// the flag set.
	again, err := svc.DeliverOrder(context.Background(), principal.Principal{IsAdmin: true}, o.ID)
	require.NoError(t, err)
	assert.True(t, again.IsDelivered)

	require.Len(t, store.events, 2)
	assert.Equal(t, outbox.RoutingKeyOrderDelivered, store.events[0].RoutingKey)
}
