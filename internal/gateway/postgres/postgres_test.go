package postgres_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/gateway"
	"github.com/your-org/storefront/internal/gateway/postgres"
	database "github.com/your-org/storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront/internal/persist"
	"github.com/your-org/storefront/internal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu       sync.Mutex
	resets   map[string]string
	confirms map[string]string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{resets: map[string]string{}, confirms: map[string]string{}}
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, email, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[email] = token
	return nil
}

func (m *recordingMailer) SendEmailVerificationEmail(_ context.Context, email, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirms[email] = token
	return nil
}

func (m *recordingMailer) resetToken(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[email]
}

func (m *recordingMailer) confirmToken(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirms[email]
}

func testConfig() *config.Config {
	cfg := config.FromEnv()
	cfg.Security.BcryptCost = bcrypt.MinCost
	cfg.JWT.Secret = "test-secret-that-is-at-least-32-characters"
	cfg.JWT.AccessTokenExpiry = time.Hour
	cfg.Persist.KeyPrefix = "test"
	cfg.Auth.RequireEmailConfirmation = false
	return cfg
}

type harness struct {
	backend *postgres.Backend
	store   persist.Store
	mailer  *recordingMailer
	redis   *redis.Client
}

func newHarness(t *testing.T, db *gorm.DB, cfg *config.Config) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := persist.NewRedisStore(client, 0)
	mailer := newRecordingMailer()
	return &harness{
		backend: postgres.NewBackend(db, client, store, mailer, cfg, logger.Discard()),
		store:   store,
		mailer:  mailer,
		redis:   client,
	}
}

func TestClient_RequiresSession(t *testing.T) {
	h := newHarness(t, nil, testConfig())
	ctx := context.Background()
	client := h.backend.Client("ws-1")

	_, err := client.ListCartLines(ctx, "u1")
	assert.True(t, gateway.IsCode(err, gateway.CodeUnauthorized))

	err = client.UpsertCartLine(ctx, "u1", "p1", nil, 1)
	assert.True(t, gateway.IsCode(err, gateway.CodeUnauthorized))

	err = client.DeleteCartLine(ctx, "line-1")
	assert.True(t, gateway.IsCode(err, gateway.CodeUnauthorized))

	_, err = client.ListWishlistLines(ctx, "u1")
	assert.True(t, gateway.IsCode(err, gateway.CodeUnauthorized))

	_, err = client.CreateOrder(ctx, &checkout.Order{UserID: "u1"})
	assert.True(t, gateway.IsCode(err, gateway.CodeUnauthorized))

	_, err = client.AddReview(ctx, "u1", &catalog.Review{ProductID: "p1", Rating: 5})
	assert.True(t, gateway.IsCode(err, gateway.CodeUnauthorized))

	raw, err := client.ResumeSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, raw)

	assert.NoError(t, client.TerminateSession(ctx))
}

func TestClient_ResumeForgetsUnusableToken(t *testing.T) {
	h := newHarness(t, nil, testConfig())
	ctx := context.Background()
	key := persist.Key("test", "ws-1", "gateway-session")

	require.NoError(t, persist.SaveState(ctx, h.store, key, 1, map[string]string{"access_token": "not-a-jwt"}))

	raw, err := h.backend.Client("ws-1").ResumeSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, raw)

	_, err = h.store.Load(ctx, key)
	assert.ErrorIs(t, err, persist.ErrNotFound)
}

func TestBackend_ConfirmRejectsUnknownTokens(t *testing.T) {
	h := newHarness(t, nil, testConfig())
	ctx := context.Background()

	err := h.backend.ConfirmPasswordReset(ctx, "missing", "newpass99")
	assert.True(t, gateway.IsCode(err, gateway.CodeInvalidToken))

	err = h.backend.ConfirmEmail(ctx, "missing")
	assert.True(t, gateway.IsCode(err, gateway.CodeInvalidToken))
}

// Integration tests against a real PostgreSQL

func setupDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront_test"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg.Database.Host = host
	cfg.Database.Port = strconv.Itoa(port.Int())
	cfg.Database.Name = "storefront_test"
	cfg.Database.User = "storefront"
	cfg.Database.Password = "storefront"
	cfg.Database.SSLMode = "disable"
	cfg.App.Debug = false

	db, err := database.NewConnection(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(cfg, logger.Discard()))
	return db.DB
}

func signUpAndIn(t *testing.T, client *postgres.Client, email string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, client.CreateAccount(ctx, email, "secret99", map[string]string{"full_name": "Jane Doe"}))
	raw, err := client.VerifyCredentials(ctx, email, "secret99")
	require.NoError(t, err)
	return raw.ID
}

func TestPostgres_Gateway(t *testing.T) {
	cfg := testConfig()
	db := setupDB(t, cfg)
	h := newHarness(t, db, cfg)
	ctx := context.Background()

	shirt, err := h.backend.GetProductBySlug(ctx, "cotton-t-shirt")
	require.NoError(t, err)
	require.Len(t, shirt.Variants, 2)
	var xl catalog.ProductVariant
	for _, v := range shirt.Variants {
		if v.SKU == "CLOTH-001-XL" {
			xl = v
		}
	}
	require.NotEmpty(t, xl.ID)

	headphones, err := h.backend.GetProductBySlug(ctx, "wireless-headphones")
	require.NoError(t, err)

	client := h.backend.Client("ws-1")

	t.Run("sign up and sign in", func(t *testing.T) {
		err := client.CreateAccount(ctx, "Shopper@Example.com", "secret99", map[string]string{"full_name": "Sam Shopper", "role": "admin"})
		require.NoError(t, err)

		raw, err := client.ResumeSession(ctx)
		require.NoError(t, err)
		assert.Nil(t, raw, "sign up does not open a session")

		err = client.CreateAccount(ctx, "shopper@example.com", "secret99", nil)
		assert.True(t, gateway.IsCode(err, gateway.CodeUserExists))

		err = client.CreateAccount(ctx, "weak@example.com", "abc", nil)
		gwErr, ok := gateway.AsError(err)
		require.True(t, ok)
		assert.Equal(t, gateway.CodeWeakPassword, gwErr.Code)
		assert.Equal(t, "Password should be at least 6 characters", gwErr.Message)

		_, err = client.VerifyCredentials(ctx, "shopper@example.com", "wrong-password")
		gwErr, ok = gateway.AsError(err)
		require.True(t, ok)
		assert.Equal(t, "Invalid login credentials", gwErr.Message)

		raw, err = client.VerifyCredentials(ctx, "shopper@example.com", "secret99")
		require.NoError(t, err)
		assert.Equal(t, "shopper@example.com", raw.Email)
		assert.Equal(t, "Sam Shopper", raw.Metadata["full_name"])
		assert.Equal(t, "customer", raw.Metadata["role"])

		resumed, err := client.ResumeSession(ctx)
		require.NoError(t, err)
		require.NotNil(t, resumed)
		assert.Equal(t, raw.ID, resumed.ID)
	})

	resumed, err := client.ResumeSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, resumed)
	userID := resumed.ID

	t.Run("cart upsert merges lines", func(t *testing.T) {
		require.NoError(t, client.UpsertCartLine(ctx, userID, shirt.ID, nil, 2))
		require.NoError(t, client.UpsertCartLine(ctx, userID, shirt.ID, nil, 3))
		require.NoError(t, client.UpsertCartLine(ctx, userID, shirt.ID, &xl.ID, 1))

		lines, err := client.ListCartLines(ctx, userID)
		require.NoError(t, err)
		require.Len(t, lines, 2)

		assert.Nil(t, lines[0].VariantID)
		assert.Equal(t, 5, lines[0].Quantity)
		require.NotNil(t, lines[0].Product)
		assert.Equal(t, "Cotton T-Shirt", lines[0].Product.Name)

		require.NotNil(t, lines[1].Variant)
		assert.True(t, lines[1].UnitPrice().Equal(decimal.RequireFromString("549")))

		err = client.UpsertCartLine(ctx, userID, "00000000-0000-0000-0000-000000000001", nil, 1)
		assert.True(t, gateway.IsCode(err, gateway.CodeNotFound))

		err = client.UpsertCartLine(ctx, userID, shirt.ID, nil, 1000)
		assert.True(t, gateway.IsCode(err, gateway.CodeValidation))
	})

	t.Run("cart upsert serializes concurrent adds", func(t *testing.T) {
		require.NoError(t, client.UpsertCartLine(ctx, userID, headphones.ID, nil, 1))

		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- client.UpsertCartLine(ctx, userID, headphones.ID, nil, 1)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		lines, err := client.ListCartLines(ctx, userID)
		require.NoError(t, err)
		require.Len(t, lines, 3)
		assert.Equal(t, 11, lines[2].Quantity)
	})

	t.Run("row level checks", func(t *testing.T) {
		anonymous := h.backend.Client("ws-anonymous")
		_, err := anonymous.ListCartLines(ctx, userID)
		assert.True(t, gateway.IsCode(err, gateway.CodeUnauthorized))

		other := h.backend.Client("ws-other")
		otherID := signUpAndIn(t, other, "other@example.com")

		_, err = other.ListCartLines(ctx, userID)
		assert.True(t, gateway.IsCode(err, gateway.CodeUnauthorized))

		lines, err := client.ListCartLines(ctx, userID)
		require.NoError(t, err)
		err = other.UpdateCartLineQuantity(ctx, lines[0].ID, 9)
		assert.True(t, gateway.IsCode(err, gateway.CodeNotFound))

		require.NoError(t, other.DeleteCartLine(ctx, lines[0].ID))
		lines, err = client.ListCartLines(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, lines, 3, "another user cannot delete the line")

		otherLines, err := other.ListCartLines(ctx, otherID)
		require.NoError(t, err)
		assert.Empty(t, otherLines)
	})

	t.Run("cart line update and delete", func(t *testing.T) {
		lines, err := client.ListCartLines(ctx, userID)
		require.NoError(t, err)

		require.NoError(t, client.UpdateCartLineQuantity(ctx, lines[0].ID, 7))
		require.NoError(t, client.DeleteCartLine(ctx, lines[1].ID))

		lines, err = client.ListCartLines(ctx, userID)
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, 7, lines[0].Quantity)

		err = client.UpdateCartLineQuantity(ctx, "not-a-uuid", 2)
		assert.True(t, gateway.IsCode(err, gateway.CodeNotFound))
	})

	t.Run("wishlist", func(t *testing.T) {
		require.NoError(t, client.InsertWishlistLine(ctx, userID, headphones.ID))

		err := client.InsertWishlistLine(ctx, userID, headphones.ID)
		gwErr, ok := gateway.AsError(err)
		require.True(t, ok)
		assert.Equal(t, "Product already in wishlist", gwErr.Message)

		lines, err := client.ListWishlistLines(ctx, userID)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		require.NotNil(t, lines[0].Product)
		assert.Equal(t, "wireless-headphones", lines[0].Product.Slug)

		require.NoError(t, client.DeleteWishlistLine(ctx, userID, headphones.ID))
		lines, err = client.ListWishlistLines(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("orders", func(t *testing.T) {
		address := checkout.Address{
			FullName: "Sam Shopper", Phone: "9876543210", AddressLine1: "1 Main St",
			City: "Mumbai", State: "MH", PostalCode: "400001", Country: "India",
		}
		created, err := client.CreateOrder(ctx, &checkout.Order{
			UserID:          userID,
			OrderNumber:     "ORD-1",
			Status:          checkout.OrderStatusConfirmed,
			PaymentStatus:   checkout.PaymentStatusPaid,
			PaymentMethod:   checkout.PaymentMethodCard,
			Subtotal:        decimal.NewFromInt(998),
			TaxAmount:       decimal.RequireFromString("179.64"),
			ShippingAmount:  decimal.Zero,
			DiscountAmount:  decimal.Zero,
			TotalAmount:     decimal.RequireFromString("1177.64"),
			Currency:        "INR",
			ShippingAddress: address,
			BillingAddress:  address,
			Items: []checkout.OrderItem{
				{ProductID: shirt.ID, Name: shirt.Name, SKU: shirt.SKU, Quantity: 2, Price: decimal.NewFromInt(499), Total: decimal.NewFromInt(998)},
			},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		require.Len(t, created.Items, 1)
		assert.Equal(t, created.ID, created.Items[0].OrderID)

		orders, err := client.ListOrders(ctx, userID)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.True(t, orders[0].TotalAmount.Equal(decimal.RequireFromString("1177.64")))
		assert.Equal(t, "Mumbai", orders[0].ShippingAddress.City)

		order, err := client.GetOrder(ctx, userID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "ORD-1", order.OrderNumber)

		_, err = client.GetOrder(ctx, userID, "not-a-uuid")
		assert.True(t, gateway.IsCode(err, gateway.CodeNotFound))

		require.NoError(t, client.DeleteCartLines(ctx, userID))
		lines, err := client.ListCartLines(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("catalog", func(t *testing.T) {
		books, err := h.backend.ListProducts(ctx, catalog.Filters{Category: "books"})
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "the-go-programming-language", books[0].Slug)

		cheapest, err := h.backend.ListProducts(ctx, catalog.Filters{SortBy: catalog.SortPriceAsc})
		require.NoError(t, err)
		require.NotEmpty(t, cheapest)
		assert.Equal(t, "cotton-t-shirt", cheapest[0].Slug)

		categories, err := h.backend.ListCategories(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, categories)
		assert.Equal(t, "electronics", categories[0].Slug)

		_, err = h.backend.GetProductBySlug(ctx, "missing")
		assert.True(t, gateway.IsCode(err, gateway.CodeNotFound))
	})

	t.Run("reviews", func(t *testing.T) {
		reviews, err := h.backend.ListProductReviews(ctx, headphones.ID)
		require.NoError(t, err)
		assert.Empty(t, reviews)

		review, err := client.AddReview(ctx, userID, &catalog.Review{
			ProductID: shirt.ID,
			Rating:    4,
			Title:     "Soft fabric",
			Comment:   "Washes well.",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, review.ID)
		assert.True(t, review.IsVerifiedPurchase, "the shirt was ordered above")
		require.NotNil(t, review.Reviewer)
		assert.Equal(t, "Sam Shopper", review.Reviewer.FullName)

		_, err = client.AddReview(ctx, userID, &catalog.Review{ProductID: shirt.ID, Rating: 2})
		assert.True(t, gateway.IsCode(err, gateway.CodeConflict))

		unbought, err := client.AddReview(ctx, userID, &catalog.Review{ProductID: headphones.ID, Rating: 5})
		require.NoError(t, err)
		assert.False(t, unbought.IsVerifiedPurchase)

		_, err = client.AddReview(ctx, userID, &catalog.Review{ProductID: headphones.ID, Rating: 6})
		assert.True(t, gateway.IsCode(err, gateway.CodeValidation))

		_, err = client.AddReview(ctx, "00000000-0000-0000-0000-000000000002", &catalog.Review{ProductID: shirt.ID, Rating: 3})
		assert.True(t, gateway.IsCode(err, gateway.CodeUnauthorized), "reviews are written as the signed-in user only")

		reviews, err = h.backend.ListProductReviews(ctx, shirt.ID)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		assert.Equal(t, "Soft fabric", reviews[0].Title)

		rated, err := h.backend.GetProductBySlug(ctx, "cotton-t-shirt")
		require.NoError(t, err)
		assert.Equal(t, 4.0, rated.Rating)
		assert.Equal(t, 1, rated.ReviewCount)
	})

	t.Run("sign out revokes the token", func(t *testing.T) {
		require.NoError(t, client.TerminateSession(ctx))

		_, err := client.ListCartLines(ctx, userID)
		assert.True(t, gateway.IsCode(err, gateway.CodeUnauthorized))

		raw, err := client.ResumeSession(ctx)
		require.NoError(t, err)
		assert.Nil(t, raw)
	})

	t.Run("password reset", func(t *testing.T) {
		require.NoError(t, client.RequestPasswordReset(ctx, "unknown@example.com"))
		assert.Empty(t, h.mailer.resetToken("unknown@example.com"))

		require.NoError(t, client.RequestPasswordReset(ctx, "shopper@example.com"))
		token := h.mailer.resetToken("shopper@example.com")
		require.NotEmpty(t, token)

		require.NoError(t, h.backend.ConfirmPasswordReset(ctx, token, "newpass99"))

		err := h.backend.ConfirmPasswordReset(ctx, token, "another99")
		assert.True(t, gateway.IsCode(err, gateway.CodeInvalidToken))

		_, err = client.VerifyCredentials(ctx, "shopper@example.com", "secret99")
		assert.True(t, gateway.IsCode(err, gateway.CodeInvalidCredentials))

		_, err = client.VerifyCredentials(ctx, "shopper@example.com", "newpass99")
		assert.NoError(t, err)
	})

	t.Run("email confirmation", func(t *testing.T) {
		confirming := *cfg
		confirming.Auth.RequireEmailConfirmation = true
		ch := newHarness(t, db, &confirming)
		c := ch.backend.Client("ws-confirm")

		require.NoError(t, c.CreateAccount(ctx, "new@example.com", "secret99", map[string]string{"full_name": "New"}))

		_, err := c.VerifyCredentials(ctx, "new@example.com", "secret99")
		gwErr, ok := gateway.AsError(err)
		require.True(t, ok)
		assert.Equal(t, "Email not confirmed", gwErr.Message)

		token := ch.mailer.confirmToken("new@example.com")
		require.NotEmpty(t, token)
		require.NoError(t, ch.backend.ConfirmEmail(ctx, token))

		_, err = c.VerifyCredentials(ctx, "new@example.com", "secret99")
		assert.NoError(t, err)
	})
}
