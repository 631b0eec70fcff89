// internal/domain/wishlist/entity.go
package wishlist

import (
	"time"

	"github.com/your-org/storefront/internal/domain/catalog"
)

// Line is one saved product
type Line struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	ProductID string           `json:"product_id"`
	CreatedAt time.Time        `json:"created_at"`
	Product   *catalog.Product `json:"product,omitempty"`
}
