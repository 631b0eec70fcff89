// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/session"
)

// AccountConfirmer completes the flows started by mailed links
type AccountConfirmer interface {
	ConfirmPasswordReset(ctx context.Context, token, password string) error
	ConfirmEmail(ctx context.Context, token string) error
}

// SignInRequest represents sign in request
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUpRequest represents sign up request
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
}

// ResetPasswordRequest represents reset password request
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ConfirmResetRequest represents the second step of a password reset
type ConfirmResetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	accounts AccountConfirmer
	logger   logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts AccountConfirmer, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

// SignIn handles POST /auth/sign-in
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ws := workspace(c)
	if err := ws.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		message := "Sign in failed"
		var authErr *session.AuthError
		if errors.As(err, &authErr) && authErr.Message != "" {
			message = authErr.Message
		}
		ws.Toasts.Error(message)
		respondError(c, http.StatusUnauthorized, message)
		return
	}

	ws.Toasts.Success("Welcome back!")
	respond(c, http.StatusOK, gin.H{
		"message": "Signed in successfully",
		"data": gin.H{
			"session":  ws.Session.Snapshot(),
			"cart":     ws.Cart.Snapshot(),
			"wishlist": ws.Wishlist.Snapshot(),
		},
	})
}

// SignUp handles POST /auth/sign-up
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ws := workspace(c)
	profile := session.Profile{FullName: req.FullName, Phone: req.Phone, Role: session.RoleCustomer}
	if err := ws.Session.SignUp(c.Request.Context(), req.Email, req.Password, profile); err != nil {
		message := errorMessage(err, session.MessageUnexpected)
		ws.Toasts.Error(message)
		respondError(c, http.StatusBadRequest, message)
		return
	}

	ws.Toasts.Success("Account created! Please check your email to verify your account.")
	respond(c, http.StatusCreated, gin.H{
		"message": "Account created successfully",
	})
}

// SignOut handles POST /auth/sign-out. It always succeeds.
func (h *AuthHandler) SignOut(c *gin.Context) {
	workspace(c).SignOut(c.Request.Context())
	respond(c, http.StatusOK, gin.H{
		"message": "Signed out successfully",
	})
}

// ResetPassword handles POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ws := workspace(c)
	if err := ws.Session.ResetPassword(c.Request.Context(), req.Email); err != nil {
		message := errorMessage(err, session.MessageUnexpected)
		ws.Toasts.Error(message)
		respondError(c, http.StatusBadRequest, message)
		return
	}

	ws.Toasts.Success("Password reset email sent! Check your inbox.")
	respond(c, http.StatusOK, gin.H{
		"message": "Password reset email sent",
	})
}

// ConfirmPasswordReset handles POST /auth/reset-password/confirm
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.accounts.ConfirmPasswordReset(c.Request.Context(), req.Token, req.Password); err != nil {
		h.logger.WithError(err).Warn("Password reset confirmation failed")
		respondFailure(c, err, "Failed to reset password")
		return
	}

	workspace(c).Toasts.Success("Password updated! You can now sign in.")
	respond(c, http.StatusOK, gin.H{
		"message": "Password updated successfully",
	})
}

// ConfirmEmail handles GET /auth/confirm?token=
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, "Confirmation token is required")
		return
	}

	if err := h.accounts.ConfirmEmail(c.Request.Context(), token); err != nil {
		respondFailure(c, err, "Failed to confirm email")
		return
	}

	workspace(c).Toasts.Success("Email confirmed! You can now sign in.")
	respond(c, http.StatusOK, gin.H{
		"message": "Email confirmed successfully",
	})
}

// Session handles GET /auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"data": workspace(c).Session.Snapshot(),
	})
}
