// internal/interfaces/http/handlers/wishlist.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AddToWishlistRequest represents add to wishlist request
type AddToWishlistRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// WishlistHandler handles wishlist endpoints
type WishlistHandler struct{}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler() *WishlistHandler {
	return &WishlistHandler{}
}

// GetWishlist handles GET /wishlist. ?refresh=true re-reads it from the gateway.
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	ws := workspace(c)
	identity, ok := signedIn(c, ws)
	if !ok {
		return
	}

	if c.Query("refresh") == "true" {
		if err := ws.Wishlist.Fetch(c.Request.Context(), identity.ID); err != nil {
			respondFailure(c, err, "Failed to load wishlist")
			return
		}
	}

	respond(c, http.StatusOK, gin.H{
		"data": ws.Wishlist.Snapshot(),
	})
}

// AddToWishlist handles POST /wishlist/items
func (h *WishlistHandler) AddToWishlist(c *gin.Context) {
	ws := workspace(c)
	identity, ok := signedIn(c, ws)
	if !ok {
		return
	}

	var req AddToWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := ws.Wishlist.Add(c.Request.Context(), identity.ID, req.ProductID); err != nil {
		respondFailure(c, err, "Failed to add to wishlist")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Product added to wishlist successfully",
		"data":    ws.Wishlist.Snapshot(),
	})
}

// RemoveFromWishlist handles DELETE /wishlist/items/:productId
func (h *WishlistHandler) RemoveFromWishlist(c *gin.Context) {
	ws := workspace(c)
	identity, ok := signedIn(c, ws)
	if !ok {
		return
	}
	if err := ws.Wishlist.Remove(c.Request.Context(), identity.ID, c.Param("productId")); err != nil {
		respondFailure(c, err, "Failed to remove from wishlist")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": "Product removed from wishlist successfully",
		"data":    ws.Wishlist.Snapshot(),
	})
}

// CheckWishlist handles GET /wishlist/items/:productId
func (h *WishlistHandler) CheckWishlist(c *gin.Context) {
	productID := c.Param("productId")
	respond(c, http.StatusOK, gin.H{
		"data": gin.H{
			"product_id":  productID,
			"in_wishlist": workspace(c).Wishlist.Contains(productID),
		},
	})
}
