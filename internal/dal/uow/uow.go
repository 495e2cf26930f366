package uow

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/shoplane/order/internal/dal/interfaces/iorderitemrepo"
	"github.com/shoplane/order/internal/dal/interfaces/iorderrepo"
	"github.com/shoplane/order/internal/dal/interfaces/ioutboxrepo"
	"github.com/shoplane/order/internal/dal/postgres"
	orderrepo "github.com/shoplane/order/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/shoplane/order/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/shoplane/order/internal/dal/repositories/outbox/postgres"
)

// unitOfWork scopes the write-side repositories to a single transaction so
// an order transition and its outbox record commit or roll back together.
type unitOfWork struct {
	db            *sqlx.DB
	tx            *sqlx.Tx
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

func NewUnitOfWork(client *postgres.Client) *unitOfWork {
	db := client.DB()

	return &unitOfWork{
		db:            db,
		orderRepo:     orderrepo.NewPostgresOrderRepository(db),
		orderItemRepo: orderitemrepo.NewPostgresOrderItemRepository(db),
		outboxRepo:    outboxrepo.NewOutboxRepository(db),
	}
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewPostgresOrderRepository(tx)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(tx)
	u.outboxRepo = outboxrepo.NewOutboxRepository(tx)

	return nil
}

func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit()
}

func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Rollback()
}
