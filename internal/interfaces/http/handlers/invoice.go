// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/checkout"
)

// ConfirmationRenderer renders order confirmations
type ConfirmationRenderer interface {
	OrderConfirmation(order *checkout.Order) (*bytes.Buffer, error)
	OrderConfirmationHTML(order *checkout.Order) (string, error)
}

// InvoiceHandler handles order confirmation documents
type InvoiceHandler struct {
	renderer ConfirmationRenderer
	logger   logrus.FieldLogger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(renderer ConfirmationRenderer, logger logrus.FieldLogger) *InvoiceHandler {
	return &InvoiceHandler{renderer: renderer, logger: logger}
}

// GetConfirmation handles GET /orders/:id/confirmation.pdf. ?format=html returns
// the preview markup instead of the PDF.
func (h *InvoiceHandler) GetConfirmation(c *gin.Context) {
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

	if c.Query("format") == "html" {
		html, err := h.renderer.OrderConfirmationHTML(order)
		if err != nil {
			h.logger.WithError(err).WithField("order_number", order.OrderNumber).Error("Failed to render confirmation")
			respondError(c, http.StatusInternalServerError, "Failed to generate confirmation")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}

	pdfBuffer, err := h.renderer.OrderConfirmation(order)
	if err != nil {
		h.logger.WithError(err).WithField("order_number", order.OrderNumber).Error("Failed to generate confirmation PDF")
		respondError(c, http.StatusInternalServerError, "Failed to generate confirmation")
		return
	}

	// Set headers for PDF download
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=order-%s.pdf", order.OrderNumber))
	c.Header("Content-Length", strconv.Itoa(pdfBuffer.Len()))

	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}
