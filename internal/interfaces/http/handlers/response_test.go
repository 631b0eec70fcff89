package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/gateway"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid quantity", cart.ErrInvalidQuantity, http.StatusBadRequest},
		{"empty cart", checkout.ErrEmptyCart, http.StatusBadRequest},
		{"rating out of range", catalog.ErrInvalidRating, http.StatusBadRequest},
		{"not signed in", checkout.ErrNotAuthenticated, http.StatusUnauthorized},
		{"deadline", fmt.Errorf("failed to list orders: %w", context.DeadlineExceeded), http.StatusRequestTimeout},
		{"credentials", gateway.NewError(gateway.CodeInvalidCredentials, "Invalid login credentials"), http.StatusUnauthorized},
		{"conflict", gateway.NewError(gateway.CodeConflict, "Product already in wishlist"), http.StatusConflict},
		{"wrapped not found", fmt.Errorf("failed to get order: %w", gateway.NewError(gateway.CodeNotFound, "Order not found")), http.StatusNotFound},
		{"validation", gateway.NewError(gateway.CodeValidation, "Insufficient stock"), http.StatusBadRequest},
		{"transport", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Insufficient stock", errorMessage(gateway.NewError(gateway.CodeValidation, "Insufficient stock"), "fallback"))
	assert.Equal(t, "Password should be at least 6 characters", errorMessage(&session.AuthError{Message: "Password should be at least 6 characters"}, "fallback"))
	assert.Equal(t, "cart is empty", errorMessage(checkout.ErrEmptyCart, "fallback"))
	assert.Equal(t, "fallback", errorMessage(errors.New("dial tcp: i/o timeout"), "fallback"))
}
