// internal/gateway/postgres/cart.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/gateway"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListCartLines returns the identity's cart lines, oldest first, joined with
// their product and variant
func (c *Client) ListCartLines(ctx context.Context, identityID string) ([]cart.Line, error) {
	if _, err := c.authorize(ctx, identityID); err != nil {
		return nil, err
	}

	var items []CartItem
	err := c.backend.db.WithContext(ctx).
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Product.Variants").
		Preload("Variant").
		Where("user_id = ?", identityID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}

	lines := make([]cart.Line, 0, len(items))
	for i := range items {
		lines = append(lines, items[i].toLine())
	}
	return lines, nil
}

// UpsertCartLine adds quantity to the identity's line for (product, variant),
// creating the line when there is none
func (c *Client) UpsertCartLine(ctx context.Context, identityID, productID string, variantID *string, quantity int) error {
	if _, err := c.authorize(ctx, identityID); err != nil {
		return err
	}
	if quantity <= 0 {
		return gateway.NewError(gateway.CodeValidation, "Quantity must be greater than 0")
	}
	if !validID(productID) || (variantID != nil && !validID(*variantID)) {
		return gateway.NewError(gateway.CodeNotFound, "Product not found")
	}

	return c.backend.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		err := tx.Where("id = ? AND is_active = ?", productID, true).First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gateway.NewError(gateway.CodeNotFound, "Product not found")
		}
		if err != nil {
			return fmt.Errorf("failed to find product: %w", err)
		}

		available := product.Quantity
		if variantID != nil {
			var variant ProductVariant
			err := tx.Where("id = ? AND product_id = ? AND is_active = ?", *variantID, productID, true).First(&variant).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gateway.NewError(gateway.CodeNotFound, "Product variant not found")
			}
			if err != nil {
				return fmt.Errorf("failed to find variant: %w", err)
			}
			available = variant.Quantity
		}

		var existing CartItem
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", identityID, productID)
		if variantID == nil {
			query = query.Where("variant_id IS NULL")
		} else {
			query = query.Where("variant_id = ?", *variantID)
		}

		err = query.First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if product.TrackQuantity && available < quantity {
				return gateway.NewError(gateway.CodeValidation, "Insufficient stock")
			}
			item := &CartItem{
				UserID:    identityID,
				ProductID: productID,
				VariantID: variantID,
				Quantity:  quantity,
			}
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("failed to create cart item: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to find cart item: %w", err)
		default:
			newQuantity := existing.Quantity + quantity
			if product.TrackQuantity && available < newQuantity {
				return gateway.NewError(gateway.CodeValidation, "Insufficient stock")
			}
			existing.Quantity = newQuantity
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
		}
		return nil
	})
}

// UpdateCartLineQuantity sets the quantity of one of the caller's lines
func (c *Client) UpdateCartLineQuantity(ctx context.Context, lineID string, quantity int) error {
	claims, err := c.caller(ctx)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return gateway.NewError(gateway.CodeValidation, "Quantity must be greater than 0")
	}
	if !validID(lineID) {
		return gateway.NewError(gateway.CodeNotFound, "Cart item not found")
	}

	result := c.backend.db.WithContext(ctx).Model(&CartItem{}).
		Where("id = ? AND user_id = ?", lineID, claims.UserID).
		Update("quantity", quantity)
	if result.Error != nil {
		return fmt.Errorf("failed to update cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gateway.NewError(gateway.CodeNotFound, "Cart item not found")
	}
	return nil
}

// DeleteCartLine removes one of the caller's lines. Deleting a missing line
// is not an error.
func (c *Client) DeleteCartLine(ctx context.Context, lineID string) error {
	claims, err := c.caller(ctx)
	if err != nil {
		return err
	}
	if !validID(lineID) {
		return nil
	}

	err = c.backend.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, claims.UserID).
		Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// DeleteCartLines removes every line of the identity's cart
func (c *Client) DeleteCartLines(ctx context.Context, identityID string) error {
	if _, err := c.authorize(ctx, identityID); err != nil {
		return err
	}

	if err := c.backend.db.WithContext(ctx).Where("user_id = ?", identityID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
