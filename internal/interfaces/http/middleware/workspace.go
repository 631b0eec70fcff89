// internal/interfaces/http/middleware/workspace.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/storefront"
)

const workspaceKey = "workspace"

// Workspace resolves the visitor's workspace from the session cookie, issuing
// a new cookie when there is none, and persists the workspace after the
// handler ran
func Workspace(registry *storefront.Registry, cfg *config.Config, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID := getOrCreateWorkspaceID(c, cfg.Session)

		ws, err := registry.Get(c.Request.Context(), workspaceID)
		if err != nil {
			logger.WithError(err).WithField("workspace", workspaceID).Error("Failed to open workspace")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Session storage unavailable",
			})
			c.Abort()
			return
		}

		ws.Touch(time.Now())
		SetWorkspace(c, ws)

		c.Next()

		// The request context may already be cancelled by a timeout
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 3*time.Second)
		defer cancel()
		if err := ws.Persist(ctx); err != nil {
			logger.WithError(err).WithField("workspace", workspaceID).Warn("Failed to persist workspace")
		}
	}
}

// RequireAuthenticated rejects visitors without an identity
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := GetWorkspace(c)
		if ws == nil || !ws.Session.IsAuthenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetWorkspace stores the workspace in gin context
func SetWorkspace(c *gin.Context, ws *storefront.Workspace) {
	c.Set(workspaceKey, ws)
}

// GetWorkspace extracts the workspace from gin context
func GetWorkspace(c *gin.Context) *storefront.Workspace {
	ws, exists := c.Get(workspaceKey)
	if !exists {
		return nil
	}
	return ws.(*storefront.Workspace)
}

func getOrCreateWorkspaceID(c *gin.Context, cfg config.SessionConfig) string {
	workspaceID, err := c.Cookie(cfg.CookieName)
	if err != nil || uuid.Validate(workspaceID) != nil {
		workspaceID = uuid.New().String()
	}

	// Refreshed on every request so the cookie slides with activity
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, workspaceID, cfg.CookieMaxAge, "/", "", cfg.CookieSecure, true)

	return workspaceID
}
