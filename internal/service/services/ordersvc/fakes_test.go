package ordersvc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shoplane/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/shoplane/order/internal/dal/interfaces/iorderrepo"
	"github.com/shoplane/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/shoplane/order/internal/payment"
	"github.com/shoplane/order/internal/service/models/order"
	"github.com/shoplane/order/internal/service/models/orderitem"
	"github.com/shoplane/order/internal/service/models/outbox"
	"github.com/shoplane/order/internal/service/models/product"
	"github.com/shoplane/order/internal/service/models/user"
)

// memStore is the shared in-memory storage behind the fake repositories.
// MarkPaid checks transaction-id uniqueness and the is_paid guard under one
// lock, mirroring what the unique index gives the real repository.
type memStore struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]order.Order
	items    map[uuid.UUID][]orderitem.OrderItem
	products map[uuid.UUID]product.Product
	users    map[uuid.UUID]user.User
	events   []outbox.Message
	nextItem int64
}

func newMemStore() *memStore {
	return &memStore{
		orders:   map[uuid.UUID]order.Order{},
		items:    map[uuid.UUID][]orderitem.OrderItem{},
		products: map[uuid.UUID]product.Product{},
		users:    map[uuid.UUID]user.User{},
	}
}

type fakeOrderRepo struct{ store *memStore }

func (r *fakeOrderRepo) Insert(_ context.Context, o order.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.orders[o.ID] = o

	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, ok := r.store.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.OrderItems = nil

	return &o, nil
}

func (r *fakeOrderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []order.Order
	for _, o := range r.store.orders {
		if len(filter.UserIDs) > 0 && filter.UserIDs[0] != o.UserID {
			continue
		}
		result = append(result, o)
	}

	return result, nil
}

func (r *fakeOrderRepo) HasPaymentTransaction(_ context.Context, transactionID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.hasTransactionLocked(transactionID), nil
}

func (r *fakeOrderRepo) hasTransactionLocked(transactionID string) bool {
	for _, o := range r.store.orders {
		if o.PaymentResult != nil && o.PaymentResult.TransactionID == transactionID {
			return true
		}
	}

	return false
}

func (r *fakeOrderRepo) MarkPaid(_ context.Context, id uuid.UUID, result order.PaymentResult, paidAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.hasTransactionLocked(result.TransactionID) {
		return order.ErrDuplicateTransaction
	}

	o, ok := r.store.orders[id]
	if !ok || o.IsPaid {
		return order.ErrDuplicateTransaction
	}

	o.IsPaid = true
	o.PaidAt = &paidAt
	o.PaymentResult = &result
	o.UpdatedAt = paidAt
	r.store.orders[id] = o

	return nil
}

func (r *fakeOrderRepo) MarkDelivered(_ context.Context, id uuid.UUID, deliveredAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, ok := r.store.orders[id]
	if !ok {
		return order.ErrNotFound
	}

	o.IsDelivered = true
	o.DeliveredAt = &deliveredAt
	o.UpdatedAt = deliveredAt
	r.store.orders[id] = o

	return nil
}

type fakeOrderItemRepo struct{ store *memStore }

func (r *fakeOrderItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]orderitem.OrderItem, 0, len(items))
	for _, item := range items {
		r.store.nextItem++
		item.ID = r.store.nextItem
		r.store.items[item.OrderID] = append(r.store.items[item.OrderID], item)
		result = append(result, item)
	}

	return result, nil
}

func (r *fakeOrderItemRepo) QueryByOrderIDs(_ context.Context, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []orderitem.OrderItem
	for _, id := range orderIDs {
		result = append(result, r.store.items[id]...)
	}

	return result, nil
}

type fakeProductRepo struct{ store *memStore }

func (r *fakeProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]product.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []product.Product
	for _, id := range ids {
		if p, ok := r.store.products[id]; ok {
			result = append(result, p)
		}
	}

	return result, nil
}

type fakeUserRepo struct{ store *memStore }

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]user.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []user.User
	for _, id := range ids {
		if u, ok := r.store.users[id]; ok {
			result = append(result, u)
		}
	}

	return result, nil
}

type fakeOutboxRepo struct{ store *memStore }

func (r *fakeOutboxRepo) Insert(_ context.Context, msg outbox.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events = append(r.store.events, msg)

	return nil
}

func (r *fakeOutboxRepo) GetPendingMessages(_ context.Context, _ int) ([]outbox.Message, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) Delete(_ context.Context, _ int64) error { return nil }

func (r *fakeOutboxRepo) UpdateRetry(_ context.Context, _ int64, _ int, _ string, _ time.Time) error {
	return nil
}

type fakeUOW struct {
	store *memStore
}

func (u *fakeUOW) Begin(context.Context) error { return nil }
func (u *fakeUOW) Commit() error               { return nil }
func (u *fakeUOW) Rollback() error             { return nil }

func (u *fakeUOW) OrderRepository() iorderrepo.IOrderRepository {
	return &fakeOrderRepo{store: u.store}
}

func (u *fakeUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return &fakeOrderItemRepo{store: u.store}
}

func (u *fakeUOW) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &fakeOutboxRepo{store: u.store}
}

// fakeVerifier answers from a fixed table; unknown ids are unverified.
type fakeVerifier struct {
	mu      sync.Mutex
	results map[string]payment.Verification
	calls   int
}

func (v *fakeVerifier) Verify(_ context.Context, transactionID string) (payment.Verification, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++

	return v.results[transactionID], nil
}

type fakeRegistry struct {
	verifier payment.Verifier
}

func (r *fakeRegistry) ForMethod(string) (payment.Verifier, error) {
	return r.verifier, nil
}
