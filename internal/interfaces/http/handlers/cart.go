// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/cart"
)

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartHandler handles cart endpoints
type CartHandler struct{}

// NewCartHandler creates a new cart handler
func NewCartHandler() *CartHandler {
	return &CartHandler{}
}

// GetCart handles GET /cart. ?refresh=true re-reads the cart from the gateway.
func (h *CartHandler) GetCart(c *gin.Context) {
	ws := workspace(c)
	identity, ok := signedIn(c, ws)
	if !ok {
		return
	}

	if c.Query("refresh") == "true" {
		if err := ws.Cart.Fetch(c.Request.Context(), identity.ID); err != nil {
			respondFailure(c, err, "Failed to load cart")
			return
		}
	}

	respond(c, http.StatusOK, gin.H{
		"data": ws.Cart.Snapshot(),
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	ws := workspace(c)
	identity, ok := signedIn(c, ws)
	if !ok {
		return
	}

	var req cart.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.IdentityID = identity.ID

	if err := ws.Cart.Add(c.Request.Context(), req); err != nil {
		respondFailure(c, err, "Failed to add item to cart")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    ws.Cart.Snapshot(),
	})
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ws := workspace(c)
	if err := ws.Cart.UpdateQuantity(c.Request.Context(), c.Param("id"), req.Quantity); err != nil {
		respondFailure(c, err, "Failed to update cart")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    ws.Cart.Snapshot(),
	})
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	ws := workspace(c)
	if err := ws.Cart.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondFailure(c, err, "Failed to remove item")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    ws.Cart.Snapshot(),
	})
}
