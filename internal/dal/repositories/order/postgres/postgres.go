package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/shoplane/order/internal/service/models/money"
	"github.com/shoplane/order/internal/service/models/order"
	"github.com/shoplane/order/internal/service/models/orderitem"
)

// pgUniqueViolation is the Postgres error code for unique constraint hits.
const pgUniqueViolation = "23505"

// OrderDal represents the order data access layer model.
type OrderDal struct {
	ID                   uuid.UUID      `db:"id"`
	UserID               uuid.UUID      `db:"user_id"`
	Address              string         `db:"address"`
	City                 string         `db:"city"`
	PostalCode           string         `db:"postal_code"`
	Country              string         `db:"country"`
	PaymentMethod        string         `db:"payment_method"`
	ItemsPrice           money.Amount   `db:"items_price"`
	TaxPrice             money.Amount   `db:"tax_price"`
	ShippingPrice        money.Amount   `db:"shipping_price"`
	TotalPrice           money.Amount   `db:"total_price"`
	IsPaid               bool           `db:"is_paid"`
	PaidAt               sql.NullTime   `db:"paid_at"`
	PaymentTransactionID sql.NullString `db:"payment_transaction_id"`
	PaymentStatus        sql.NullString `db:"payment_status"`
	PaymentUpdateTime    sql.NullString `db:"payment_update_time"`
	PayerEmail           sql.NullString `db:"payer_email"`
	IsDelivered          bool           `db:"is_delivered"`
	DeliveredAt          sql.NullTime   `db:"delivered_at"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

// ToModel converts OrderDal to the service layer Order model.
func (o *OrderDal) ToModel() *order.Order {
	model := &order.Order{
		ID:     o.ID,
		UserID: o.UserID,
		ShippingAddress: order.ShippingAddress{
			Address:    o.Address,
			City:       o.City,
			PostalCode: o.PostalCode,
			Country:    o.Country,
		},
		PaymentMethod: o.PaymentMethod,
		ItemsPrice:    o.ItemsPrice,
		TaxPrice:      o.TaxPrice,
		ShippingPrice: o.ShippingPrice,
		TotalPrice:    o.TotalPrice,
		IsPaid:        o.IsPaid,
		IsDelivered:   o.IsDelivered,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		OrderItems:    []orderitem.OrderItem{}, // populated separately
	}

	if o.PaidAt.Valid {
		paidAt := o.PaidAt.Time
		model.PaidAt = &paidAt
	}
	if o.DeliveredAt.Valid {
		deliveredAt := o.DeliveredAt.Time
		model.DeliveredAt = &deliveredAt
	}
	if o.PaymentTransactionID.Valid {
		model.PaymentResult = &order.PaymentResult{
			TransactionID: o.PaymentTransactionID.String,
			Status:        o.PaymentStatus.String,
			UpdateTime:    o.PaymentUpdateTime.String,
			PayerEmail:    o.PayerEmail.String,
		}
	}

	return model
}

var orderColumns = []string{
	"id",
	"user_id",
	"address",
	"city",
	"postal_code",
	"country",
	"payment_method",
	"items_price",
	"tax_price",
	"shipping_price",
	"total_price",
	"is_paid",
	"paid_at",
	"payment_transaction_id",
	"payment_status",
	"payment_update_time",
	"payer_email",
	"is_delivered",
	"delivered_at",
	"created_at",
	"updated_at",
}

type PostgresOrderRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresOrderRepository(conn sqlx.ExtContext) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
	}
}

// Insert persists a new order record. Payment and delivery fields start
// unset; the dedicated transitions are the only writers of those columns.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) error {
	query, args, err := sq.Insert("orders").
		Columns(
			"id",
			"user_id",
			"address",
			"city",
			"postal_code",
			"country",
			"payment_method",
			"items_price",
			"tax_price",
			"shipping_price",
			"total_price",
			"is_paid",
			"is_delivered",
			"created_at",
			"updated_at",
		).
		Values(
			o.ID,
			o.UserID,
			o.ShippingAddress.Address,
			o.ShippingAddress.City,
			o.ShippingAddress.PostalCode,
			o.ShippingAddress.Country,
			o.PaymentMethod,
			o.ItemsPrice,
			o.TaxPrice,
			o.ShippingPrice,
			o.TotalPrice,
			o.IsPaid,
			o.IsDelivered,
			o.CreatedAt,
			o.UpdatedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// GetByID fetches a single order row.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	query, args, err := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal OrderDal
	if err := sqlx.GetContext(ctx, r.conn, &dal, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}

		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return dal.ToModel(), nil
}

// Query retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.IDs) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.IDs})
	}
	if len(filter.UserIDs) > 0 {
		builder = builder.Where(sq.Eq{"user_id": filter.UserIDs})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dals []OrderDal
	if err := sqlx.SelectContext(ctx, r.conn, &dals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	result := make([]order.Order, 0, len(dals))
	for i := range dals {
		result = append(result, *dals[i].ToModel())
	}

	return result, nil
}

// HasPaymentTransaction reports whether the transaction id has settled any
// order in the system. This is the scan-based ledger check; the unique
// index on payment_transaction_id closes the race it cannot.
func (r *PostgresOrderRepository) HasPaymentTransaction(ctx context.Context, transactionID string) (bool, error) {
	query, args, err := sq.Select("1").
		From("orders").
		Where(sq.Eq{"payment_transaction_id": transactionID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build select query: %w", err)
	}

	var one int
	if err := sqlx.GetContext(ctx, r.conn, &one, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, fmt.Errorf("failed to check payment transaction: %w", err)
	}

	return true, nil
}

// MarkPaid records a confirmed payment. The is_paid guard keeps the flag
// monotonic; a unique violation on the transaction id means another order
// already settled with it.
func (r *PostgresOrderRepository) MarkPaid(
	ctx context.Context,
	id uuid.UUID,
	result order.PaymentResult,
	paidAt time.Time,
) error {
	query, args, err := sq.Update("orders").
		Set("is_paid", true).
		Set("paid_at", paidAt).
		Set("payment_transaction_id", result.TransactionID).
		Set("payment_status", result.Status).
		Set("payment_update_time", result.UpdateTime).
		Set("payer_email", result.PayerEmail).
		Set("updated_at", paidAt).
		Where(sq.Eq{"id": id, "is_paid": false}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return order.ErrDuplicateTransaction
		}

		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// The order either does not exist or was already paid by a
		// concurrent confirmation.
		return order.ErrDuplicateTransaction
	}

	return nil
}

// MarkDelivered stamps the delivery transition.
func (r *PostgresOrderRepository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error {
	query, args, err := sq.Update("orders").
		Set("is_delivered", true).
		Set("delivered_at", deliveredAt).
		Set("updated_at", deliveredAt).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark order delivered: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return order.ErrNotFound
	}

	return nil
}
