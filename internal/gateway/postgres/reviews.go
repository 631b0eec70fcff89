// internal/gateway/postgres/reviews.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/gateway"
	"gorm.io/gorm"
)

// ListProductReviews returns a product's reviews, newest first. Reviews are
// public like the rest of the catalog.
func (b *Backend) ListProductReviews(ctx context.Context, productID string) ([]catalog.Review, error) {
	if !validID(productID) {
		return []catalog.Review{}, nil
	}

	var models []Review
	err := b.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	reviews := make([]catalog.Review, 0, len(models))
	for i := range models {
		reviews = append(reviews, models[i].toCatalog())
	}
	return reviews, nil
}

func (c *Client) ListProductReviews(ctx context.Context, productID string) ([]catalog.Review, error) {
	return c.backend.ListProductReviews(ctx, productID)
}

// AddReview stores the identity's review and refreshes the product's rating
// and review count in the same transaction. A review counts as a verified
// purchase when the identity has a live order containing the product.
func (c *Client) AddReview(ctx context.Context, identityID string, review *catalog.Review) (*catalog.Review, error) {
	if _, err := c.authorize(ctx, identityID); err != nil {
		return nil, err
	}
	if !validID(review.ProductID) {
		return nil, gateway.NewError(gateway.CodeNotFound, "Product not found")
	}
	if review.Rating < 1 || review.Rating > 5 {
		return nil, gateway.NewError(gateway.CodeValidation, catalog.ErrInvalidRating.Error())
	}

	model := &Review{
		ProductID: review.ProductID,
		UserID:    identityID,
		Rating:    review.Rating,
		Title:     review.Title,
		Comment:   review.Comment,
	}

	tx := c.backend.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var product Product
	err := tx.Select("id").Where("id = ? AND is_active = ?", review.ProductID, true).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, gateway.NewError(gateway.CodeNotFound, "Product not found")
	}
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	var purchased int64
	err = tx.Model(&OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ?", identityID, review.ProductID).
		Where("orders.status NOT IN ?", []string{string(checkout.OrderStatusCancelled), string(checkout.OrderStatusRefunded)}).
		Count(&purchased).Error
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to check purchase: %w", err)
	}
	model.IsVerifiedPurchase = purchased > 0

	if err := tx.Create(model).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, gateway.NewError(gateway.CodeConflict, "You have already reviewed this product")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	var stats struct {
		Average float64
		Total   int
	}
	err = tx.Model(&Review{}).
		Select("COALESCE(AVG(rating), 0)::float8 AS average, COUNT(*) AS total").
		Where("product_id = ?", review.ProductID).
		Scan(&stats).Error
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	err = tx.Model(&Product{}).Where("id = ?", review.ProductID).Updates(map[string]interface{}{
		"rating":       math.Round(stats.Average*100) / 100,
		"review_count": stats.Total,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update product rating: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit review: %w", err)
	}

	c.backend.logger.WithFields(logrus.Fields{
		"review_id":  model.ID,
		"product_id": model.ProductID,
		"user_id":    identityID,
	}).Info("Review added")

	if err := c.backend.db.WithContext(ctx).Preload("User").First(model, "id = ?", model.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	stored := model.toCatalog()
	return &stored, nil
}
