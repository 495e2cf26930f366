package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/shoplane/order/internal/service/models/money"
	"github.com/shoplane/order/internal/service/models/orderitem"
)

// Calculator computes order totals from line-item snapshots. It is pure:
// same items, same totals, no side effects.
type Calculator struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold money.Amount
	ShippingFee           money.Amount
}

// Totals is the itemized result. Total always equals
// Items + Tax + Shipping exactly.
type Totals struct {
	ItemsPrice    money.Amount
	TaxPrice      money.Amount
	ShippingPrice money.Amount
	TotalPrice    money.Amount
}

// Calculate prices the given line items. Quantities are trusted to be
// positive and prices to be the captured snapshot prices; the caller
// validates both. Empty input yields all-zero totals.
func (c Calculator) Calculate(items []orderitem.OrderItem) Totals {
	itemsPrice := money.Zero()
	for _, item := range items {
		itemsPrice = itemsPrice.Add(item.Price.MulInt(item.Quantity))
	}

	taxPrice := money.FromDecimal(itemsPrice.Decimal().Mul(c.TaxRate))

	shippingPrice := money.Zero()
	if !itemsPrice.IsZero() && itemsPrice.LessThan(c.FreeShippingThreshold) {
		shippingPrice = c.ShippingFee
	}

	return Totals{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		TotalPrice:    itemsPrice.Add(taxPrice).Add(shippingPrice),
	}
}
