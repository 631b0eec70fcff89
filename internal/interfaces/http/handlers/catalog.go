// internal/interfaces/http/handlers/catalog.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/catalog"
)

// CatalogHandler handles product and category browsing
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: service}
}

// GetProducts handles GET /products
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	var filters catalog.Filters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBindError(c, err)
		return
	}

	var err error
	if filters.MinPrice, err = priceParam(c, "min_price"); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid min_price")
		return
	}
	if filters.MaxPrice, err = priceParam(c, "max_price"); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid max_price")
		return
	}

	products, err := h.catalog.Products(c.Request.Context(), filters)
	if err != nil {
		respondFailure(c, err, "Failed to fetch products")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"data": products,
	})
}

// SearchProducts handles GET /products/search?q=
func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondFailure(c, err, "Failed to search products")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"data": products,
	})
}

// GetProduct handles GET /products/:slug
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.Product(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondFailure(c, err, "Failed to fetch product")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"data": product,
	})
}

// GetProductReviews handles GET /products/:slug/reviews
func (h *CatalogHandler) GetProductReviews(c *gin.Context) {
	reviews, err := h.catalog.Reviews(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondFailure(c, err, "Failed to fetch reviews")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"data": reviews,
	})
}

// AddProductReview handles POST /products/:slug/reviews
func (h *CatalogHandler) AddProductReview(c *gin.Context) {
	ws := workspace(c)
	identity, ok := signedIn(c, ws)
	if !ok {
		return
	}

	var req catalog.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := h.catalog.AddReview(c.Request.Context(), ws.Reviews, ws.Toasts, identity.ID, c.Param("slug"), req)
	if err != nil {
		respondFailure(c, err, "Failed to submit review")
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"message": "Review submitted successfully",
		"data":    review,
	})
}

// GetCategories handles GET /categories
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		respondFailure(c, err, "Failed to fetch categories")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"data": categories,
	})
}

func priceParam(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &price, nil
}
