package iproductrepo

import (
	"context"

	"github.com/google/uuid"

	"github.com/shoplane/order/internal/service/models/product"
)

// IProductRepository resolves product references to catalog records.
// No ordering guarantee; callers match results by id.
type IProductRepository interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]product.Product, error)
}
