package postgresrepo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shoplane/order/internal/service/models/user"
)

// UserDal represents the user projection data access layer model.
type UserDal struct {
	ID    uuid.UUID `db:"id"`
	Name  string    `db:"name"`
	Email string    `db:"email"`
}

// ToModel converts UserDal to the service layer model.
func (u *UserDal) ToModel() user.User {
	return user.User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

type PostgresUserRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresUserRepository(conn sqlx.ExtContext) *PostgresUserRepository {
	return &PostgresUserRepository{
		conn: conn,
	}
}

// GetByIDs fetches owner projections for the given user ids.
func (r *PostgresUserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}

	textIDs := make([]string, len(ids))
	for i, id := range ids {
		textIDs[i] = id.String()
	}

	query := `
		SELECT
			id,
			name,
			email
		FROM users
		WHERE id = ANY($1::uuid[])
	`

	var dals []UserDal
	if err := sqlx.SelectContext(ctx, r.conn, &dals, query, pq.Array(textIDs)); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	result := make([]user.User, 0, len(dals))
	for i := range dals {
		result = append(result, dals[i].ToModel())
	}

	return result, nil
}
