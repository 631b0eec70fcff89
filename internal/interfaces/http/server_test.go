package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/storefront"
	"github.com/your-org/storefront/internal/gateway/gatewaytest"
	"github.com/your-org/storefront/internal/interfaces/http/routes"
	"github.com/your-org/storefront/internal/persist"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/pdf"
)

type checkFunc func(ctx context.Context) error

func (f checkFunc) Health(ctx context.Context) error { return f(ctx) }

func testServer(t *testing.T, checks map[string]HealthChecker) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.FromEnv()
	log := logger.Discard()
	gw := gatewaytest.New()

	registry := storefront.NewRegistry(func(string) storefront.Gateway { return gw }, storefront.Options{
		Store:      persist.NewMemoryStore(),
		KeyPrefix:  "test",
		Checkout:   cfg.Checkout,
		ToastLimit: 20,
		Logger:     log,
	})

	return NewServer(cfg, routes.Dependencies{
		Registry: registry,
		Catalog:  catalog.NewService(gw, log),
		Accounts: nil,
		PDF:      pdf.NewService(cfg),
		Config:   cfg,
		Logger:   log,
	}, checks, nil, log)
}

func TestHealth(t *testing.T) {
	healthy := checkFunc(func(context.Context) error { return nil })
	down := checkFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("healthy", func(t *testing.T) {
		srv := testServer(t, map[string]HealthChecker{"database": healthy, "redis": healthy})
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"healthy"`)
	})

	t.Run("redis down", func(t *testing.T) {
		srv := testServer(t, map[string]HealthChecker{"database": healthy, "redis": down})
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "redis ping failed")
	})
}

func TestReady_SkipsWorkspace(t *testing.T) {
	srv := testServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 0, srv.deps.Registry.Len())
}

func TestMiddleware_RequestIDAndSecurityHeaders(t *testing.T) {
	srv := testServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, 1, srv.deps.Registry.Len())
}
