// internal/gateway/postgres/catalog.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/gateway"
	"gorm.io/gorm"
)

// ListProducts returns active products matching filters. The catalog is
// public, so no session is required.
func (b *Backend) ListProducts(ctx context.Context, filters catalog.Filters) ([]catalog.Product, error) {
	db := b.db.WithContext(ctx)
	query := b.productQuery(ctx).Where("products.is_active = ?", true)

	if filters.Category != "" {
		categories := db.Model(&Category{}).Select("id").Where("slug = ?", filters.Category)
		query = query.Where("products.category_id IN (?)", categories)
	}
	if filters.MinPrice != nil {
		query = query.Where("products.price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("products.price <= ?", *filters.MaxPrice)
	}
	if filters.Brand != "" {
		query = query.Where("LOWER(products.brand) = LOWER(?)", filters.Brand)
	}
	if filters.Rating > 0 {
		query = query.Where("products.rating >= ?", filters.Rating)
	}
	if filters.InStock {
		query = query.Where("products.track_quantity = ? OR products.quantity > 0", false)
	}

	switch filters.SortBy {
	case catalog.SortPriceAsc:
		query = query.Order("products.price ASC")
	case catalog.SortPriceDesc:
		query = query.Order("products.price DESC")
	case catalog.SortRating:
		query = query.Order("products.rating DESC")
	default:
		query = query.Order("products.created_at DESC")
	}

	var models []Product
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]catalog.Product, 0, len(models))
	for i := range models {
		products = append(products, *models[i].toCatalog())
	}
	return products, nil
}

// GetProductBySlug returns one active product
func (b *Backend) GetProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var model Product
	err := b.productQuery(ctx).
		Where("products.slug = ? AND products.is_active = ?", slug, true).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, gateway.NewError(gateway.CodeNotFound, "Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return model.toCatalog(), nil
}

// ListCategories returns active categories in display order
func (b *Backend) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var models []Category
	err := b.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]catalog.Category, 0, len(models))
	for i := range models {
		categories = append(categories, models[i].toCatalog())
	}
	return categories, nil
}

func (b *Backend) productQuery(ctx context.Context) *gorm.DB {
	return b.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Variants", "is_active = ?", true)
}

// The client reads the same public catalog

func (c *Client) ListProducts(ctx context.Context, filters catalog.Filters) ([]catalog.Product, error) {
	return c.backend.ListProducts(ctx, filters)
}

func (c *Client) GetProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	return c.backend.GetProductBySlug(ctx, slug)
}

func (c *Client) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return c.backend.ListCategories(ctx)
}
