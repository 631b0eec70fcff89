// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OrderHandler handles order history endpoints
type OrderHandler struct{}

// NewOrderHandler creates a new order handler
func NewOrderHandler() *OrderHandler {
	return &OrderHandler{}
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	ws := workspace(c)
	identity, ok := signedIn(c, ws)
	if !ok {
		return
	}

	orders, err := ws.Checkout.Orders(c.Request.Context(), identity.ID)
	if err != nil {
		respondFailure(c, err, "Failed to fetch orders")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"data": orders,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ws := workspace(c)
	identity, ok := signedIn(c, ws)
	if !ok {
		return
	}

	order, err := ws.Checkout.Order(c.Request.Context(), identity.ID, c.Param("id"))
	if err != nil {
		respondFailure(c, err, "Failed to fetch order")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"data": order,
	})
}
