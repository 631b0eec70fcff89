// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/checkout"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct{}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler() *CheckoutHandler {
	return &CheckoutHandler{}
}

// GetSummary handles GET /checkout/summary
func (h *CheckoutHandler) GetSummary(c *gin.Context) {
	ws := workspace(c)
	totals := ws.Cart.Totals()

	respond(c, http.StatusOK, gin.H{
		"data": gin.H{
			"items":       ws.Cart.Lines(),
			"total_items": totals.TotalItems,
			"summary":     ws.Checkout.Summarize(totals.TotalAmount),
		},
	})
}

// PlaceOrder handles POST /checkout
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	ws := workspace(c)
	identity, ok := signedIn(c, ws)
	if !ok {
		return
	}

	var req checkout.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ws.Checkout.PlaceOrder(c.Request.Context(), identity, ws.Cart, ws.Toasts, req)
	if err != nil {
		respondFailure(c, err, "Failed to place order")
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    order,
	})
}
