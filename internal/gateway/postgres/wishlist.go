// internal/gateway/postgres/wishlist.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront/internal/domain/wishlist"
	"github.com/your-org/storefront/internal/gateway"
	"gorm.io/gorm"
)

// ListWishlistLines returns the identity's wishlist, oldest first
func (c *Client) ListWishlistLines(ctx context.Context, identityID string) ([]wishlist.Line, error) {
	if _, err := c.authorize(ctx, identityID); err != nil {
		return nil, err
	}

	var items []WishlistItem
	err := c.backend.db.WithContext(ctx).
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Product.Variants").
		Where("user_id = ?", identityID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist items: %w", err)
	}

	lines := make([]wishlist.Line, 0, len(items))
	for i := range items {
		lines = append(lines, items[i].toLine())
	}
	return lines, nil
}

// InsertWishlistLine adds a product to the identity's wishlist
func (c *Client) InsertWishlistLine(ctx context.Context, identityID, productID string) error {
	if _, err := c.authorize(ctx, identityID); err != nil {
		return err
	}

	if !validID(productID) {
		return gateway.NewError(gateway.CodeNotFound, "Product not found")
	}

	db := c.backend.db.WithContext(ctx)

	var product Product
	err := db.Select("id").Where("id = ? AND is_active = ?", productID, true).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gateway.NewError(gateway.CodeNotFound, "Product not found")
	}
	if err != nil {
		return fmt.Errorf("failed to find product: %w", err)
	}

	var count int64
	if err := db.Model(&WishlistItem{}).Where("user_id = ? AND product_id = ?", identityID, productID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check wishlist: %w", err)
	}
	if count > 0 {
		return gateway.NewError(gateway.CodeConflict, "Product already in wishlist")
	}

	item := &WishlistItem{UserID: identityID, ProductID: productID}
	if err := db.Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return gateway.NewError(gateway.CodeConflict, "Product already in wishlist")
		}
		return fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return nil
}

// DeleteWishlistLine removes a product from the identity's wishlist
func (c *Client) DeleteWishlistLine(ctx context.Context, identityID, productID string) error {
	if _, err := c.authorize(ctx, identityID); err != nil {
		return err
	}
	if !validID(productID) {
		return nil
	}

	err := c.backend.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", identityID, productID).
		Delete(&WishlistItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return nil
}
