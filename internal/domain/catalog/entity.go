// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog snapshot joined onto cart and wishlist lines
type Product struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	ShortDescription string           `json:"short_description,omitempty"`
	SKU              string           `json:"sku"`
	Price            decimal.Decimal  `json:"price"`
	ComparePrice     *decimal.Decimal `json:"compare_price,omitempty"`
	TrackQuantity    bool             `json:"track_quantity"`
	Quantity         int              `json:"quantity"`
	CategoryID       string           `json:"category_id"`
	Brand            string           `json:"brand,omitempty"`
	Tags             []string         `json:"tags"`
	Images           []ProductImage   `json:"images,omitempty"`
	Variants         []ProductVariant `json:"variants,omitempty"`
	IsActive         bool             `json:"is_active"`
	IsFeatured       bool             `json:"is_featured"`
	Rating           float64          `json:"rating"`
	ReviewCount      int              `json:"review_count"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Category         *Category        `json:"category,omitempty"`
}

// ProductImage is one gallery image
type ProductImage struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	URL       string `json:"url"`
	AltText   string `json:"alt_text,omitempty"`
	SortOrder int    `json:"sort_order"`
}

// ProductVariant is a purchasable variation (size, colour, ...)
type ProductVariant struct {
	ID           string            `json:"id"`
	ProductID    string            `json:"product_id"`
	Name         string            `json:"name"`
	SKU          string            `json:"sku"`
	Price        decimal.Decimal   `json:"price"`
	ComparePrice *decimal.Decimal  `json:"compare_price,omitempty"`
	Quantity     int               `json:"quantity"`
	Options      map[string]string `json:"options"`
}

// Category groups products
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	IsActive    bool   `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

// InStock reports whether the product can be bought right now
func (p *Product) InStock() bool {
	return !p.TrackQuantity || p.Quantity > 0
}

// PrimaryImage returns the first image URL, or "" when there is none
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// UnitPrice resolves the price of one unit: the variant price when a variant
// with a non-zero price is given, else the product price, else zero.
func UnitPrice(product *Product, variant *ProductVariant) decimal.Decimal {
	if variant != nil && !variant.Price.IsZero() {
		return variant.Price
	}
	if product != nil {
		return product.Price
	}
	return decimal.Zero
}
