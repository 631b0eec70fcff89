package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/storefront"
	"github.com/your-org/storefront/internal/gateway"
	"github.com/your-org/storefront/internal/gateway/gatewaytest"
	"github.com/your-org/storefront/internal/interfaces/http/routes"
	"github.com/your-org/storefront/internal/persist"
	"github.com/your-org/storefront/internal/pkg/logger"
)

type stubAccounts struct {
	confirmed []string
}

func (s *stubAccounts) ConfirmPasswordReset(_ context.Context, token, _ string) error {
	if token != "good" {
		return gateway.NewError(gateway.CodeInvalidToken, "Link is invalid or has expired")
	}
	return nil
}

func (s *stubAccounts) ConfirmEmail(_ context.Context, token string) error {
	if token != "good" {
		return gateway.NewError(gateway.CodeInvalidToken, "Link is invalid or has expired")
	}
	s.confirmed = append(s.confirmed, token)
	return nil
}

type stubRenderer struct{}

func (stubRenderer) OrderConfirmation(order *checkout.Order) (*bytes.Buffer, error) {
	return bytes.NewBufferString("%PDF-1.4 " + order.OrderNumber), nil
}

func (stubRenderer) OrderConfirmationHTML(order *checkout.Order) (string, error) {
	return "<h1>" + order.OrderNumber + "</h1>", nil
}

type visitor struct {
	t      *testing.T
	engine *gin.Engine
	cfg    *config.Config
	cookie *http.Cookie
}

type response struct {
	Status int
	Header http.Header
	Body   map[string]any
	Raw    []byte
}

func (r response) data() map[string]any {
	data, _ := r.Body["data"].(map[string]any)
	return data
}

func (r response) toasts() []string {
	raw, _ := r.Body["toasts"].([]any)
	messages := make([]string, 0, len(raw))
	for _, item := range raw {
		if toast, ok := item.(map[string]any); ok {
			messages = append(messages, toast["message"].(string))
		}
	}
	return messages
}

func (v *visitor) do(method, path string, body any) response {
	v.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(v.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if v.cookie != nil {
		req.AddCookie(v.cookie)
	}

	rec := httptest.NewRecorder()
	v.engine.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == v.cfg.Session.CookieName {
			v.cookie = cookie
		}
	}

	res := response{Status: rec.Code, Header: rec.Header(), Raw: rec.Body.Bytes()}
	if bytes.HasPrefix(bytes.TrimSpace(res.Raw), []byte("{")) {
		require.NoError(v.t, json.Unmarshal(res.Raw, &res.Body))
	}
	return res
}

type harness struct {
	gw       *gatewaytest.Fake
	accounts *stubAccounts
	visitor  *visitor
}

func setup(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.FromEnv()
	log := logger.Discard()

	gw := gatewaytest.New()
	gw.AddUser("u1", "asha@example.com", "s3cret-pass", map[string]string{"full_name": "Asha Rao"})
	gw.AddProduct(catalog.Product{ID: "p1", Name: "Cotton Kurta", Slug: "cotton-kurta", Description: "Handloom cotton", Price: decimal.RequireFromString("499.50"), IsActive: true})
	gw.AddProduct(catalog.Product{ID: "p2", Name: "Linen Shirt", Slug: "linen-shirt", Description: "Summer linen", Price: decimal.NewFromInt(899), IsActive: true})

	registry := storefront.NewRegistry(func(string) storefront.Gateway { return gw }, storefront.Options{
		Store:      persist.NewMemoryStore(),
		KeyPrefix:  "test",
		Checkout:   cfg.Checkout,
		ToastLimit: 20,
		Logger:     log,
	})

	accounts := &stubAccounts{}
	engine := gin.New()
	routes.SetupRoutes(engine.Group("/api/v1"), routes.Dependencies{
		Registry: registry,
		Catalog:  catalog.NewService(gw, log),
		Accounts: accounts,
		PDF:      stubRenderer{},
		Config:   cfg,
		Logger:   log,
	})

	return &harness{
		gw:       gw,
		accounts: accounts,
		visitor:  &visitor{t: t, engine: engine, cfg: cfg},
	}
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	res := h.visitor.do(http.MethodPost, "/api/v1/auth/sign-in", map[string]string{
		"email":    "asha@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))
}

func TestSession_IssuesCookie(t *testing.T) {
	h := setup(t)

	res := h.visitor.do(http.MethodGet, "/api/v1/auth/session", nil)
	require.Equal(t, http.StatusOK, res.Status)
	require.NotNil(t, h.visitor.cookie)
	assert.True(t, h.visitor.cookie.HttpOnly)
	assert.Equal(t, false, res.data()["is_authenticated"])

	first := h.visitor.cookie.Value
	h.visitor.do(http.MethodGet, "/api/v1/auth/session", nil)
	assert.Equal(t, first, h.visitor.cookie.Value)
}

func TestSignIn(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		h := setup(t)
		res := h.visitor.do(http.MethodPost, "/api/v1/auth/sign-in", map[string]string{
			"email":    "asha@example.com",
			"password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, res.Status)
		assert.Equal(t, "Invalid login credentials", res.Body["error"])
		assert.Equal(t, []string{"Invalid login credentials"}, res.toasts())
	})

	t.Run("invalid body", func(t *testing.T) {
		h := setup(t)
		res := h.visitor.do(http.MethodPost, "/api/v1/auth/sign-in", map[string]string{"email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, "Invalid request data", res.Body["error"])
	})

	t.Run("success", func(t *testing.T) {
		h := setup(t)
		res := h.visitor.do(http.MethodPost, "/api/v1/auth/sign-in", map[string]string{
			"email":    "asha@example.com",
			"password": "s3cret-pass",
		})
		require.Equal(t, http.StatusOK, res.Status)
		assert.Contains(t, res.toasts(), "Welcome back!")

		session, _ := res.data()["session"].(map[string]any)
		assert.Equal(t, true, session["is_authenticated"])
		user, _ := session["user"].(map[string]any)
		assert.Equal(t, "Asha Rao", user["full_name"])

		// Toasts are delivered once
		res = h.visitor.do(http.MethodGet, "/api/v1/auth/session", nil)
		assert.Empty(t, res.toasts())
		assert.Equal(t, true, res.data()["is_authenticated"])
	})
}

func TestSignUp(t *testing.T) {
	h := setup(t)

	res := h.visitor.do(http.MethodPost, "/api/v1/auth/sign-up", map[string]string{
		"email":     "ravi@example.com",
		"password":  "another-pass",
		"full_name": "Ravi Kumar",
	})
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, []string{"Account created! Please check your email to verify your account."}, res.toasts())

	// Signing up never signs the visitor in
	res = h.visitor.do(http.MethodGet, "/api/v1/auth/session", nil)
	assert.Equal(t, false, res.data()["is_authenticated"])

	res = h.visitor.do(http.MethodPost, "/api/v1/auth/sign-up", map[string]string{
		"email":     "ravi@example.com",
		"password":  "another-pass",
		"full_name": "Ravi Kumar",
	})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "User already registered", res.Body["error"])
}

func TestResetPassword(t *testing.T) {
	h := setup(t)

	res := h.visitor.do(http.MethodPost, "/api/v1/auth/reset-password", map[string]string{"email": "asha@example.com"})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, []string{"Password reset email sent! Check your inbox."}, res.toasts())
	assert.Equal(t, []string{"asha@example.com"}, h.gw.ResetRequests())

	res = h.visitor.do(http.MethodPost, "/api/v1/auth/reset-password/confirm", map[string]string{"token": "stale", "password": "brand-new-pass"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Link is invalid or has expired", res.Body["error"])

	res = h.visitor.do(http.MethodPost, "/api/v1/auth/reset-password/confirm", map[string]string{"token": "good", "password": "brand-new-pass"})
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestConfirmEmail(t *testing.T) {
	h := setup(t)

	res := h.visitor.do(http.MethodGet, "/api/v1/auth/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res = h.visitor.do(http.MethodGet, "/api/v1/auth/confirm?token=good", nil)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, []string{"good"}, h.accounts.confirmed)
}

func TestProtectedRoutesRequireSignIn(t *testing.T) {
	h := setup(t)

	for _, path := range []string{"/api/v1/cart", "/api/v1/wishlist", "/api/v1/checkout/summary", "/api/v1/orders"} {
		res := h.visitor.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Status, path)
		assert.Equal(t, "Authentication required", res.Body["error"], path)
	}
}

func TestCart(t *testing.T) {
	h := setup(t)
	h.signIn(t)

	res := h.visitor.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))
	assert.Contains(t, res.toasts(), "Item added to cart")
	assert.Equal(t, float64(2), res.data()["total_items"])

	// Same product again merges into one line
	res = h.visitor.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "p1"})
	require.Equal(t, http.StatusOK, res.Status)
	items, _ := res.data()["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(3), res.data()["total_items"])

	lineID := items[0].(map[string]any)["id"].(string)

	res = h.visitor.do(http.MethodPut, "/api/v1/cart/items/"+lineID, map[string]int{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "quantity must be at least 1", res.Body["error"])

	res = h.visitor.do(http.MethodPut, "/api/v1/cart/items/"+lineID, map[string]int{"quantity": 4})
	require.Equal(t, http.StatusOK, res.Status)
	total, err := decimal.NewFromString(res.data()["total_amount"].(string))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1998").Equal(total), total.String())

	res = h.visitor.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "missing"})
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Contains(t, res.toasts(), "Failed to add item to cart")

	res = h.visitor.do(http.MethodDelete, "/api/v1/cart/items/"+lineID, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, float64(0), res.data()["total_items"])
	assert.Empty(t, h.gw.CartRows("u1"))
}

func TestWishlist(t *testing.T) {
	h := setup(t)
	h.signIn(t)

	res := h.visitor.do(http.MethodPost, "/api/v1/wishlist/items", map[string]string{"product_id": "p2"})
	require.Equal(t, http.StatusOK, res.Status, string(res.Raw))
	items, _ := res.data()["items"].([]any)
	assert.Len(t, items, 1)

	res = h.visitor.do(http.MethodGet, "/api/v1/wishlist/items/p2", nil)
	assert.Equal(t, true, res.data()["in_wishlist"])

	res = h.visitor.do(http.MethodDelete, "/api/v1/wishlist/items/p2", nil)
	require.Equal(t, http.StatusOK, res.Status)

	res = h.visitor.do(http.MethodGet, "/api/v1/wishlist/items/p2", nil)
	assert.Equal(t, false, res.data()["in_wishlist"])
}

func TestCheckout(t *testing.T) {
	h := setup(t)
	h.signIn(t)

	order := map[string]any{
		"payment_method": "cod",
		"shipping_address": map[string]string{
			"full_name":      "Asha Rao",
			"phone":          "+919876543210",
			"address_line_1": "12 MG Road",
			"city":           "Bengaluru",
			"state":          "KA",
			"postal_code":    "560001",
			"country":        "IN",
		},
	}

	res := h.visitor.do(http.MethodPost, "/api/v1/checkout", order)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Contains(t, res.toasts(), "Your cart is empty")

	res = h.visitor.do(http.MethodPost, "/api/v1/checkout", map[string]any{"payment_method": "cheque"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid request data", res.Body["error"])

	h.visitor.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "p2"})

	res = h.visitor.do(http.MethodGet, "/api/v1/checkout/summary", nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, float64(1), res.data()["total_items"])

	res = h.visitor.do(http.MethodPost, "/api/v1/checkout", order)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Raw))
	assert.Contains(t, res.toasts(), "Order placed successfully!")
	orderID := res.data()["id"].(string)
	orderNumber := res.data()["order_number"].(string)

	res = h.visitor.do(http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, float64(0), res.data()["total_items"])
	assert.Empty(t, h.gw.CartRows("u1"))

	res = h.visitor.do(http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, res.Status)
	orders, _ := res.Body["data"].([]any)
	assert.Len(t, orders, 1)

	res = h.visitor.do(http.MethodGet, "/api/v1/orders/"+orderID, nil)
	assert.Equal(t, http.StatusOK, res.Status)

	res = h.visitor.do(http.MethodGet, "/api/v1/orders/unknown", nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Order not found", res.Body["error"])

	res = h.visitor.do(http.MethodGet, "/api/v1/orders/"+orderID+"/confirmation.pdf", nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "application/pdf", res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "order-"+orderNumber+".pdf")

	res = h.visitor.do(http.MethodGet, "/api/v1/orders/"+orderID+"/confirmation.pdf?format=html", nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, string(res.Raw), orderNumber)
}

func TestSignOut_DropsLists(t *testing.T) {
	h := setup(t)
	h.signIn(t)
	h.visitor.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": "p1"})

	res := h.visitor.do(http.MethodPost, "/api/v1/auth/sign-out", nil)
	require.Equal(t, http.StatusOK, res.Status)

	res = h.visitor.do(http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	// The gateway keeps the rows for the next sign-in
	assert.Len(t, h.gw.CartRows("u1"), 1)
}

func TestCatalog(t *testing.T) {
	h := setup(t)

	res := h.visitor.do(http.MethodGet, "/api/v1/products?sort_by=price_asc", nil)
	require.Equal(t, http.StatusOK, res.Status)
	products, _ := res.Body["data"].([]any)
	require.Len(t, products, 2)
	assert.Equal(t, "cotton-kurta", products[0].(map[string]any)["slug"])

	res = h.visitor.do(http.MethodGet, "/api/v1/products?min_price=600", nil)
	products, _ = res.Body["data"].([]any)
	require.Len(t, products, 1)
	assert.Equal(t, "linen-shirt", products[0].(map[string]any)["slug"])

	res = h.visitor.do(http.MethodGet, "/api/v1/products?max_price=cheap", nil)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid max_price", res.Body["error"])

	res = h.visitor.do(http.MethodGet, "/api/v1/products/search?q=LINEN", nil)
	products, _ = res.Body["data"].([]any)
	assert.Len(t, products, 1)

	res = h.visitor.do(http.MethodGet, "/api/v1/products/cotton-kurta", nil)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Cotton Kurta", res.data()["name"])

	res = h.visitor.do(http.MethodGet, "/api/v1/products/unknown", nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Product not found", res.Body["error"])

	res = h.visitor.do(http.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestReviews(t *testing.T) {
	h := setup(t)
	path := "/api/v1/products/cotton-kurta/reviews"

	res := h.visitor.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, res.Status)
	reviews, _ := res.data()["reviews"].([]any)
	assert.Empty(t, reviews)
	summary, _ := res.data()["summary"].(map[string]any)
	assert.Equal(t, float64(0), summary["total_reviews"])
	distribution, _ := summary["distribution"].([]any)
	assert.Len(t, distribution, 5)

	res = h.visitor.do(http.MethodPost, path, map[string]any{"rating": 4})
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	h.signIn(t)

	res = h.visitor.do(http.MethodPost, path, map[string]any{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "rating must be between 1 and 5", res.Body["error"])

	res = h.visitor.do(http.MethodPost, path, map[string]any{"title": "No stars"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid request data", res.Body["error"])

	res = h.visitor.do(http.MethodPost, path, map[string]any{"rating": 4, "title": "  Lovely weave ", "comment": "Fits well"})
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "Lovely weave", res.data()["title"])
	reviewer, _ := res.data()["user"].(map[string]any)
	assert.Equal(t, "Asha Rao", reviewer["full_name"])
	assert.Contains(t, res.toasts(), "Review submitted")

	res = h.visitor.do(http.MethodPost, path, map[string]any{"rating": 1})
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Equal(t, "You have already reviewed this product", res.Body["error"])
	assert.Contains(t, res.toasts(), "Failed to submit review")

	res = h.visitor.do(http.MethodPost, "/api/v1/products/unknown/reviews", map[string]any{"rating": 5})
	assert.Equal(t, http.StatusNotFound, res.Status)

	res = h.visitor.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, res.Status)
	reviews, _ = res.data()["reviews"].([]any)
	require.Len(t, reviews, 1)
	summary, _ = res.data()["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["total_reviews"])
	assert.Equal(t, float64(4), summary["average_rating"])
	distribution, _ = summary["distribution"].([]any)
	require.Len(t, distribution, 5)
	four := distribution[1].(map[string]any)
	assert.Equal(t, float64(4), four["rating"])
	assert.Equal(t, float64(1), four["count"])
	assert.Equal(t, float64(100), four["percentage"])

	res = h.visitor.do(http.MethodGet, "/api/v1/products/cotton-kurta", nil)
	assert.Equal(t, float64(4), res.data()["rating"])
	assert.Equal(t, float64(1), res.data()["review_count"])
}
