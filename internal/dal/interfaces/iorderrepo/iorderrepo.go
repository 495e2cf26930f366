package iorderrepo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shoplane/order/internal/service/models/order"
)

// IOrderRepository is the order persistence contract.
type IOrderRepository interface {
	// Insert persists a new order record.
	Insert(ctx context.Context, o order.Order) error

	// GetByID fetches a single order; order.ErrNotFound on miss.
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)

	// Query retrieves orders matching the filter.
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)

	// HasPaymentTransaction reports whether any order in the system has
	// already recorded the given provider transaction id.
	HasPaymentTransaction(ctx context.Context, transactionID string) (bool, error)

	// MarkPaid flips is_paid and records the payment result. It only
	// applies to unpaid orders and maps a transaction-id uniqueness
	// violation to order.ErrDuplicateTransaction.
	MarkPaid(ctx context.Context, id uuid.UUID, result order.PaymentResult, paidAt time.Time) error

	// MarkDelivered flips is_delivered; order.ErrNotFound on miss.
	MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error
}
