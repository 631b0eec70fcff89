package catalog

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Gateway is the slice of the remote data gateway the catalog reads from
type Gateway interface {
	ListProducts(ctx context.Context, filters Filters) ([]Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListProductReviews(ctx context.Context, productID string) ([]Review, error)
}

// Service handles catalog browsing
type Service struct {
	gateway Gateway
	logger  logrus.FieldLogger
}

// NewService creates a new catalog service
func NewService(gw Gateway, logger logrus.FieldLogger) *Service {
	return &Service{gateway: gw, logger: logger}
}

// Products lists active products matching filters
func (s *Service) Products(ctx context.Context, filters Filters) ([]Product, error) {
	switch filters.SortBy {
	case SortPriceAsc, SortPriceDesc, SortRating, SortNewest:
	default:
		filters.SortBy = SortNewest
	}

	products, err := s.gateway.ListProducts(ctx, filters)
	if err != nil {
		s.logger.WithError(err).Error("Error fetching products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Product returns one active product by slug
func (s *Service) Product(ctx context.Context, slug string) (*Product, error) {
	product, err := s.gateway.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Categories lists active categories in display order
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	categories, err := s.gateway.ListCategories(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Error fetching categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Search runs the in-memory search over the current active catalog
func (s *Service) Search(ctx context.Context, query string) ([]Product, error) {
	products, err := s.Products(ctx, Filters{})
	if err != nil {
		return nil, err
	}
	return Search(products, query), nil
}
