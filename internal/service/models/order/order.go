package order

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/shoplane/order/internal/service/models/money"
	"github.com/shoplane/order/internal/service/models/orderitem"
	"github.com/shoplane/order/internal/service/models/user"
)

// ShippingAddress is the destination captured at order creation.
type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// PaymentResult records the confirmed provider transaction. It is populated
// exactly once, when payment confirmation succeeds.
type PaymentResult struct {
	TransactionID string `json:"id"`
	Status        string `json:"status"`
	UpdateTime    string `json:"updateTime"`
	PayerEmail    string `json:"emailAddress"`
}

// Order is the order aggregate. isPaid and isDelivered are monotonic: each
// transitions false to true at most once and is never reset.
type Order struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"userId"`
	User            *user.User            `json:"user,omitempty"`
	OrderItems      []orderitem.OrderItem `json:"orderItems"`
	ShippingAddress ShippingAddress       `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	ItemsPrice      money.Amount          `json:"itemsPrice"`
	TaxPrice        money.Amount          `json:"taxPrice"`
	ShippingPrice   money.Amount          `json:"shippingPrice"`
	TotalPrice      money.Amount          `json:"totalPrice"`
	IsPaid          bool                  `json:"isPaid"`
	PaidAt          *time.Time            `json:"paidAt,omitempty"`
	PaymentResult   *PaymentResult        `json:"paymentResult,omitempty"`
	IsDelivered     bool                  `json:"isDelivered"`
	DeliveredAt     *time.Time            `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

var (
	ErrNotFound             = errors.New("order not found")
	ErrMissingTransactionID = errors.New("missing transaction id")
	ErrNoOrderItems         = errors.New("no order items")
	ErrInvalidQuantity      = errors.New("order item quantity must be positive")
	ErrPaymentNotVerified   = errors.New("payment not verified")
	ErrDuplicateTransaction = errors.New("transaction has already been used")
	ErrAmountMismatch       = errors.New("incorrect amount paid")
)
