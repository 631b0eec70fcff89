// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/catalog"
)

// Line is one product (optionally one variant) the visitor intends to buy
type Line struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"user_id"`
	ProductID string                  `json:"product_id"`
	VariantID *string                 `json:"variant_id,omitempty"`
	Quantity  int                     `json:"quantity"`
	CreatedAt time.Time               `json:"created_at"`
	Product   *catalog.Product        `json:"product,omitempty"`
	Variant   *catalog.ProductVariant `json:"variant,omitempty"`
}

// UnitPrice returns the price of one unit of the line
func (l Line) UnitPrice() decimal.Decimal {
	return catalog.UnitPrice(l.Product, l.Variant)
}

// LineTotal returns unit price times quantity
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals are the aggregates derived from a list of lines
type Totals struct {
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// CalculateTotals recomputes the aggregates from scratch
func CalculateTotals(lines []Line) Totals {
	totals := Totals{TotalAmount: decimal.Zero}
	for _, line := range lines {
		totals.TotalItems += line.Quantity
		totals.TotalAmount = totals.TotalAmount.Add(line.LineTotal())
	}
	return totals
}

// AddRequest describes an add-to-cart action
type AddRequest struct {
	IdentityID string  `json:"-"`
	ProductID  string  `json:"product_id" binding:"required"`
	VariantID  *string `json:"variant_id"`
	Quantity   int     `json:"quantity"`
}
