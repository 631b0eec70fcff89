// internal/interfaces/http/handlers/response.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/domain/storefront"
	"github.com/your-org/storefront/internal/gateway"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// respond writes body as JSON along with the toasts queued for the visitor
func respond(c *gin.Context, status int, body gin.H) {
	if ws := middleware.GetWorkspace(c); ws != nil {
		body["toasts"] = ws.Toasts.Drain()
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, status int, message string) {
	respond(c, status, gin.H{"error": message})
}

func respondBindError(c *gin.Context, err error) {
	respond(c, http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// respondFailure maps an operation error to a status and a visitor-safe
// message
func respondFailure(c *gin.Context, err error, fallback string) {
	respondError(c, errorStatus(err), errorMessage(err, fallback))
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, catalog.ErrInvalidRating):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}

	gwErr, ok := gateway.AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch gwErr.Code {
	case gateway.CodeInvalidCredentials, gateway.CodeEmailNotConfirmed, gateway.CodeUnauthorized:
		return http.StatusUnauthorized
	case gateway.CodeUserExists, gateway.CodeConflict:
		return http.StatusConflict
	case gateway.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func errorMessage(err error, fallback string) string {
	if gwErr, ok := gateway.AsError(err); ok {
		return gwErr.Message
	}
	var authErr *session.AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	if errors.Is(err, cart.ErrInvalidQuantity) || errors.Is(err, checkout.ErrEmptyCart) || errors.Is(err, catalog.ErrInvalidRating) {
		return err.Error()
	}
	return fallback
}

// workspace returns the visitor's workspace; the workspace middleware
// guarantees one on every API route
func workspace(c *gin.Context) *storefront.Workspace {
	return middleware.GetWorkspace(c)
}

// signedIn returns the visitor's identity, answering 401 when there is none.
// A sign-out on the same cookie can land after RequireAuthenticated ran.
func signedIn(c *gin.Context, ws *storefront.Workspace) (*session.Identity, bool) {
	identity := ws.Session.Identity()
	if identity == nil {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return identity, true
}
