package postgresrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shoplane/order/internal/service/models/money"
	"github.com/shoplane/order/internal/service/models/product"
)

// ProductDal represents the catalog data access layer model.
type ProductDal struct {
	ID        uuid.UUID    `db:"id"`
	Name      string       `db:"name"`
	Image     string       `db:"image"`
	Price     money.Amount `db:"price"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// ToModel converts ProductDal to the service layer model.
func (p *ProductDal) ToModel() product.Product {
	return product.Product{
		ID:        p.ID,
		Name:      p.Name,
		Image:     p.Image,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type PostgresProductRepository struct {
	conn sqlx.ExtContext
}

func NewPostgresProductRepository(conn sqlx.ExtContext) *PostgresProductRepository {
	return &PostgresProductRepository{
		conn: conn,
	}
}

// GetByIDs resolves the given product references in one query. Missing ids
// are simply absent from the result; the caller decides what a miss means.
func (r *PostgresProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
	if len(ids) == 0 {
		return []product.Product{}, nil
	}

	textIDs := make([]string, len(ids))
	for i, id := range ids {
		textIDs[i] = id.String()
	}

	query := `
		SELECT
			id,
			name,
			image,
			price,
			created_at,
			updated_at
		FROM products
		WHERE id = ANY($1::uuid[])
	`

	var dals []ProductDal
	if err := sqlx.SelectContext(ctx, r.conn, &dals, query, pq.Array(textIDs)); err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	result := make([]product.Product, 0, len(dals))
	for i := range dals {
		result = append(result, dals[i].ToModel())
	}

	return result, nil
}
