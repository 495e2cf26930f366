package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shoplane/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/shoplane/order/internal/dal/interfaces/iorderrepo"
	"github.com/shoplane/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/shoplane/order/internal/dal/interfaces/iproductrepo"
	"github.com/shoplane/order/internal/dal/interfaces/iuserrepo"
	"github.com/shoplane/order/internal/dal/postgres"
	"github.com/shoplane/order/internal/dal/uow"
	"github.com/shoplane/order/internal/payment"
	"github.com/shoplane/order/internal/service/models/money"
	"github.com/shoplane/order/internal/service/models/order"
	"github.com/shoplane/order/internal/service/models/orderitem"
	"github.com/shoplane/order/internal/service/models/outbox"
	"github.com/shoplane/order/internal/service/models/principal"
	"github.com/shoplane/order/internal/service/models/product"
	"github.com/shoplane/order/internal/service/pricing"
)

// OrderService owns the order lifecycle: creation, payment confirmation and
// delivery confirmation. Every operation takes the caller's principal
// explicitly; nothing is read from ambient request state.
type OrderService struct {
	pgClient    *postgres.Client
	productRepo iproductrepo.IProductRepository
	userRepo    iuserrepo.IUserRepository
	verifiers   verifierRegistry
	calculator  pricing.Calculator
	newUOW      func() unitOfWork
	now         func() time.Time
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

type verifierRegistry interface {
	ForMethod(method string) (payment.Verifier, error)
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(s.pgClient)
		}
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithProductRepository sets the product lookup repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductRepository(repo iproductrepo.IProductRepository) option {
	return func(s *OrderService) {
		s.productRepo = repo
	}
}

// WithUserRepository sets the owner projection repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUserRepository(repo iuserrepo.IUserRepository) option {
	return func(s *OrderService) {
		s.userRepo = repo
	}
}

// WithVerifierRegistry sets the payment verifier registry.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithVerifierRegistry(r verifierRegistry) option {
	return func(s *OrderService) {
		s.verifiers = r
	}
}

// WithCalculator sets the price calculator.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCalculator(c pricing.Calculator) option {
	return func(s *OrderService) {
		s.calculator = c
	}
}

// WithUnitOfWorkFactory overrides how units of work are created.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// WithClock overrides the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// CreateOrderModel is the client-submitted order request. The client
// controls only product identities, quantities, destination and payment
// method; prices and names come from the catalog.
type CreateOrderModel struct {
	Items           []orderitem.ClientItem
	ShippingAddress order.ShippingAddress
	PaymentMethod   string
}

// PaymentConfirmationModel is the provider callback payload for a payment.
// The status here is client-asserted and only recorded; verification always
// goes to the provider.
type PaymentConfirmationModel struct {
	TransactionID string
	Status        string
	UpdateTime    string
	PayerEmail    string
}

type orderEvent struct {
	OrderID    uuid.UUID    `json:"orderId"`
	UserID     uuid.UUID    `json:"userId"`
	TotalPrice money.Amount `json:"totalPrice"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// CreateOrder prices and persists a new order owned by the caller.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	p principal.Principal,
	model CreateOrderModel,
) (*order.Order, error) {
	if len(model.Items) == 0 {
		return nil, order.ErrNoOrderItems
	}
	for _, item := range model.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %s", order.ErrInvalidQuantity, item.ProductID)
		}
	}

	products, err := s.lookupProducts(ctx, model.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	orderID := uuid.New()

	items := make([]orderitem.OrderItem, 0, len(model.Items))
	for _, clientItem := range model.Items {
		record, ok := products[clientItem.ProductID]
		if !ok {
			return nil, &product.NotFoundError{ID: clientItem.ProductID}
		}

		item := orderitem.NewSnapshot(record, clientItem.Quantity)
		item.OrderID = orderID
		item.CreatedAt = now
		items = append(items, item)
	}

	totals := s.calculator.Calculate(items)

	o := order.Order{
		ID:              orderID,
		UserID:          p.UserID,
		ShippingAddress: model.ShippingAddress,
		PaymentMethod:   model.PaymentMethod,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		TotalPrice:      totals.TotalPrice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer work.Rollback() //nolint:errcheck // no-op after commit

	if err := work.OrderRepository().Insert(ctx, o); err != nil {
		return nil, err
	}

	o.OrderItems, err = work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		return nil, err
	}

	if err := s.enqueueEvent(ctx, work, outbox.RoutingKeyOrderCreated, o, now); err != nil {
		return nil, err
	}

	if err := work.Commit(); err != nil {
		return nil, err
	}

	return &o, nil
}

// lookupProducts resolves the distinct product references in one batched
// query and indexes the authoritative records by id.
func (s *OrderService) lookupProducts(
	ctx context.Context,
	items []orderitem.ClientItem,
) (map[uuid.UUID]product.Product, error) {
	distinct := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		distinct = append(distinct, item.ProductID)
	}

	records, err := s.productRepo.GetByIDs(ctx, distinct)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]product.Product, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}

	return byID, nil
}

// GetOrderByID returns a single order with its items and owner projection.
// Only the owner or an admin may fetch it.
func (s *OrderService) GetOrderByID(
	ctx context.Context,
	p principal.Principal,
	id uuid.UUID,
) (*order.Order, error) {
	work := s.newUOW()

	o, err := work.OrderRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.UserID != p.UserID && !p.IsAdmin {
		return nil, principal.ErrForbidden
	}

	items, err := work.OrderItemRepository().QueryByOrderIDs(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	o.OrderItems = items

	if err := s.attachOwners(ctx, []*order.Order{o}); err != nil {
		return nil, err
	}

	return o, nil
}

// GetMyOrders returns all orders owned by the caller, newest first.
func (s *OrderService) GetMyOrders(ctx context.Context, p principal.Principal) ([]order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, &order.QueryOrdersModel{
		UserIDs: []uuid.UUID{p.UserID},
	})
	if err != nil {
		return nil, err
	}

	if err := s.attachItems(ctx, work, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetOrders returns orders system-wide with owner projections, optionally
// paginated. Admin only.
func (s *OrderService) GetOrders(
	ctx context.Context,
	p principal.Principal,
	query order.QueryOrdersModel,
) ([]order.Order, error) {
	if !p.IsAdmin {
		return nil, principal.ErrForbidden
	}

	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, &query)
	if err != nil {
		return nil, err
	}

	if err := s.attachItems(ctx, work, orders); err != nil {
		return nil, err
	}

	refs := make([]*order.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := s.attachOwners(ctx, refs); err != nil {
		return nil, err
	}

	return orders, nil
}

// PayOrder is the payment confirmation transition. The guard runs in a
// fixed order and the first failure wins: the order must exist, the
// provider must confirm the transaction, the transaction id must be new
// system-wide, and the confirmed amount must equal the stored total
// exactly. Only this path sets isPaid.
func (s *OrderService) PayOrder(
	ctx context.Context,
	p principal.Principal,
	id uuid.UUID,
	model PaymentConfirmationModel,
) (*order.Order, error) {
	if model.TransactionID == "" {
		return nil, order.ErrMissingTransactionID
	}

	work := s.newUOW()

	o, err := work.OrderRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	verifier, err := s.verifiers.ForMethod(o.PaymentMethod)
	if err != nil {
		return nil, err
	}

	verification, err := verifier.Verify(ctx, model.TransactionID)
	if err != nil {
		return nil, err
	}
	if !verification.Verified {
		return nil, order.ErrPaymentNotVerified
	}

	used, err := work.OrderRepository().HasPaymentTransaction(ctx, model.TransactionID)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, order.ErrDuplicateTransaction
	}

	if !verification.Amount.Equal(o.TotalPrice) {
		return nil, fmt.Errorf("%w: paid %s, order total %s",
			order.ErrAmountMismatch, verification.Amount, o.TotalPrice)
	}

	now := s.now()
	result := order.PaymentResult{
		TransactionID: model.TransactionID,
		Status:        model.Status,
		UpdateTime:    model.UpdateTime,
		PayerEmail:    model.PayerEmail,
	}

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer work.Rollback() //nolint:errcheck // no-op after commit

	if err := work.OrderRepository().MarkPaid(ctx, o.ID, result, now); err != nil {
		return nil, err
	}

	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = &result
	o.UpdatedAt = now

	if err := s.enqueueEvent(ctx, work, outbox.RoutingKeyOrderPaid, *o, now); err != nil {
		return nil, err
	}

	if err := work.Commit(); err != nil {
		return nil, err
	}

	return o, nil
}

// DeliverOrder marks an order as delivered. Admin only. Repeating the call
// re-stamps deliveredAt; delivery is not a value-bearing transition.
func (s *OrderService) DeliverOrder(
	ctx context.Context,
	p principal.Principal,
	id uuid.UUID,
) (*order.Order, error) {
	if !p.IsAdmin {
		return nil, principal.ErrForbidden
	}

	work := s.newUOW()

	o, err := work.OrderRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer work.Rollback() //nolint:errcheck // no-op after commit

	if err := work.OrderRepository().MarkDelivered(ctx, o.ID, now); err != nil {
		return nil, err
	}

	o.IsDelivered = true
	o.DeliveredAt = &now
	o.UpdatedAt = now

	if err := s.enqueueEvent(ctx, work, outbox.RoutingKeyOrderDelivered, *o, now); err != nil {
		return nil, err
	}

	if err := work.Commit(); err != nil {
		return nil, err
	}

	return o, nil
}

func (s *OrderService) enqueueEvent(
	ctx context.Context,
	work unitOfWork,
	routingKey string,
	o order.Order,
	now time.Time,
) error {
	payload, err := json.Marshal(orderEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		OccurredAt: now,
	})
	if err != nil {
		return err
	}

	return work.OutboxRepository().Insert(ctx, outbox.NewOrderEvent(routingKey, payload, now))
}

func (s *OrderService) attachItems(ctx context.Context, work unitOfWork, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	orderIDs := make([]uuid.UUID, len(orders))
	for i := range orders {
		orderIDs[i] = orders[i].ID
	}

	items, err := work.OrderItemRepository().QueryByOrderIDs(ctx, orderIDs)
	if err != nil {
		return err
	}

	byOrder := make(map[uuid.UUID][]orderitem.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].OrderItems = byOrder[orders[i].ID]
	}

	return nil
}

func (s *OrderService) attachOwners(ctx context.Context, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	distinct := make([]uuid.UUID, 0, len(orders))
	seen := make(map[uuid.UUID]struct{}, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.UserID]; ok {
			continue
		}
		seen[o.UserID] = struct{}{}
		distinct = append(distinct, o.UserID)
	}

	owners, err := s.userRepo.GetByIDs(ctx, distinct)
	if err != nil {
		return err
	}

	byID := make(map[uuid.UUID]int, len(owners))
	for i := range owners {
		byID[owners[i].ID] = i
	}
	for _, o := range orders {
		if i, ok := byID[o.UserID]; ok {
			owner := owners[i]
			o.User = &owner
		}
	}

	return nil
}
