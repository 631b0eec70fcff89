// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/session"
	models "github.com/your-org/storefront/internal/gateway/postgres"
	"github.com/your-org/storefront/internal/pkg/auth"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db        *gorm.DB
	passwords *auth.PasswordManager
	logger    logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, cfg *config.Config, logger logrus.FieldLogger) *Migration {
	return &Migration{
		db:        db,
		passwords: auth.NewPasswordManager(cfg),
		logger:    logger,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	for _, model := range models.Models() {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_featured ON products(is_featured, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_rating ON products(rating DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Category indexes
		"CREATE INDEX IF NOT EXISTS idx_categories_parent_active ON categories(parent_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_categories_sort_order ON categories(sort_order)",

		// Product variant and image indexes
		"CREATE INDEX IF NOT EXISTS idx_product_variants_product_active ON product_variants(product_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_product_images_sort_order ON product_images(product_id, sort_order)",

		// Cart indexes. One line per (user, product, variant), a missing
		// variant counting as its own value.
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user_created ON cart_items(user_id, created_at)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_unique_line ON cart_items(user_id, product_id, COALESCE(variant_id, '00000000-0000-0000-0000-000000000000'::uuid))",

		// Wishlist indexes
		"CREATE INDEX IF NOT EXISTS idx_wishlist_items_user_created ON wishlist_items(user_id, created_at)",

		// Review indexes
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_created ON reviews(product_id, created_at DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.logger.WithFields(logrus.Fields{
		"created": successCount,
		"failed":  failCount,
	}).Info("Database indexes created")
	return nil
}

// SeedInitialData inserts a starter catalog and a development account
func (m *Migration) SeedInitialData() error {
	m.logger.Info("Seeding initial data")

	categories, err := m.seedCategories()
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := m.seedTestUser(); err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}

	if err := m.seedProducts(categories); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	m.logger.Info("Initial data seeded")
	return nil
}

// seedCategories creates default product categories and returns their ids
// by slug
func (m *Migration) seedCategories() (map[string]string, error) {
	categories := []models.Category{
		{Name: "Electronics", Slug: "electronics", Description: "Electronic devices, gadgets, and accessories", SortOrder: 1, IsActive: true},
		{Name: "Clothing", Slug: "clothing", Description: "Fashion, apparel, and accessories", SortOrder: 2, IsActive: true},
		{Name: "Books", Slug: "books", Description: "Books, eBooks, and educational materials", SortOrder: 3, IsActive: true},
		{Name: "Home & Garden", Slug: "home-garden", Description: "Home improvement, furniture, and garden supplies", SortOrder: 4, IsActive: true},
	}

	ids := make(map[string]string, len(categories))
	for _, category := range categories {
		var existing models.Category
		err := m.db.Where("slug = ?", category.Slug).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := m.db.Create(&category).Error; err != nil {
				return nil, err
			}
			m.logger.WithField("category", category.Name).Info("Created category")
			ids[category.Slug] = category.ID
		case err != nil:
			return nil, err
		default:
			ids[category.Slug] = existing.ID
		}
	}

	return ids, nil
}

func (m *Migration) seedTestUser() error {
	const email = "test@example.com"

	var existing models.User
	err := m.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		m.logger.Debug("Test user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := m.passwords.HashPassword("shopper123")
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	testUser := models.User{
		Email:          email,
		PasswordHash:   hash,
		FullName:       "Test Shopper",
		Phone:          "+919876543210",
		Role:           session.RoleCustomer,
		EmailConfirmed: true,
	}
	if err := m.db.Create(&testUser).Error; err != nil {
		return err
	}

	m.logger.WithField("email", email).Info("Created test user")
	return nil
}

func (m *Migration) seedProducts(categories map[string]string) error {
	var productCount int64
	if err := m.db.Model(&models.Product{}).Count(&productCount).Error; err != nil {
		return err
	}
	if productCount > 0 {
		m.logger.Debug("Products already exist")
		return nil
	}

	compare := decimal.RequireFromString("2499.00")
	products := []models.Product{
		{
			SKU:              "ELEC-001",
			Name:             "Wireless Headphones",
			Slug:             "wireless-headphones",
			Description:      "Over-ear wireless headphones with active noise cancellation and a 30 hour battery.",
			ShortDescription: "Noise cancelling over-ear headphones",
			Price:            decimal.RequireFromString("1999.00"),
			ComparePrice:     &compare,
			CategoryID:       categories["electronics"],
			Brand:            "Sonic",
			TrackQuantity:    true,
			Quantity:         40,
			Tags:             "audio,headphones,wireless",
			IsActive:         true,
			IsFeatured:       true,
			Rating:           4.5,
			ReviewCount:      128,
			Images: []models.ProductImage{
				{URL: "https://images.example.com/headphones-1.jpg", AltText: "Wireless Headphones", SortOrder: 0},
			},
		},
		{
			SKU:              "CLOTH-001",
			Name:             "Cotton T-Shirt",
			Slug:             "cotton-t-shirt",
			Description:      "Soft organic cotton t-shirt with a relaxed fit.",
			ShortDescription: "Organic cotton tee",
			Price:            decimal.RequireFromString("499.00"),
			CategoryID:       categories["clothing"],
			Brand:            "Basics",
			TrackQuantity:    true,
			Quantity:         100,
			Tags:             "tshirt,cotton,casual",
			IsActive:         true,
			Rating:           4.2,
			ReviewCount:      56,
			Images: []models.ProductImage{
				{URL: "https://images.example.com/tshirt-1.jpg", AltText: "Cotton T-Shirt", SortOrder: 0},
			},
			Variants: []models.ProductVariant{
				{SKU: "CLOTH-001-M", Name: "Medium", Quantity: 50, Options: `{"size":"M"}`, IsActive: true},
				{SKU: "CLOTH-001-XL", Name: "Extra Large", Price: decimal.RequireFromString("549.00"), Quantity: 50, Options: `{"size":"XL"}`, IsActive: true},
			},
		},
		{
			SKU:              "BOOK-001",
			Name:             "The Go Programming Language",
			Slug:             "the-go-programming-language",
			Description:      "A thorough introduction to Go for working programmers.",
			ShortDescription: "Learn Go",
			Price:            decimal.RequireFromString("850.00"),
			CategoryID:       categories["books"],
			Brand:            "Tech Press",
			TrackQuantity:    false,
			Tags:             "books,programming,go",
			IsActive:         true,
			Rating:           4.8,
			ReviewCount:      311,
		},
	}

	for i := range products {
		if err := m.db.Create(&products[i]).Error; err != nil {
			return err
		}
		m.logger.WithField("product", products[i].Name).Info("Created product")
	}
	return nil
}
