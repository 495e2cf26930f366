package product

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shoplane/order/internal/service/models/money"
)

// Product is the catalog record an order line item is snapshotted from.
// The price here is authoritative; client-submitted prices are never used.
type Product struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Image     string       `json:"image"`
	Price     money.Amount `json:"price"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NotFoundError names the product reference that did not resolve.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ID)
}
