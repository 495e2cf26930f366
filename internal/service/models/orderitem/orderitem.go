package orderitem

import (
	"time"

	"github.com/google/uuid"

	"github.com/shoplane/order/internal/service/models/money"
	"github.com/shoplane/order/internal/service/models/product"
)

// ClientItem is what the client is allowed to submit for a line item:
// a product reference and a quantity, nothing else. Name, image and price
// come from the catalog at snapshot time and cannot be supplied here.
type ClientItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"qty"`
}

// OrderItem is an immutable snapshot of a product at order-creation time.
// The captured name, image and price stay fixed even if the catalog record
// changes later.
type OrderItem struct {
	ID        int64        `json:"id"`
	OrderID   uuid.UUID    `json:"orderId"`
	ProductID uuid.UUID    `json:"productId"`
	Name      string       `json:"name"`
	Image     string       `json:"image"`
	Price     money.Amount `json:"price"`
	Quantity  int          `json:"qty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewSnapshot builds a line item from the looked-up catalog record. Taking
// the product record rather than the client item is what keeps untrusted
// fields out of the snapshot.
func NewSnapshot(p product.Product, quantity int) OrderItem {
	return OrderItem{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.Image,
		Price:     p.Price,
		Quantity:  quantity,
	}
}
