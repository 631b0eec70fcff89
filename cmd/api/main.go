// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/storefront"
	gatewaypg "github.com/your-org/storefront/internal/gateway/postgres"
	"github.com/your-org/storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront/internal/infrastructure/database/redis"
	"github.com/your-org/storefront/internal/interfaces/http"
	"github.com/your-org/storefront/internal/interfaces/http/routes"
	"github.com/your-org/storefront/internal/persist"
	"github.com/your-org/storefront/internal/pkg/email"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/pdf"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Infof("Starting %s", cfg.App.Name)

	// Connect to database
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	if err := db.Migrate(cfg, log); err != nil {
		log.WithError(err).Fatal("Database migration failed")
	}

	emailService, err := email.NewEmailService(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure email")
	}

	store := persist.NewRedisStore(redisClient.Redis, cfg.Persist.TTL)
	backend := gatewaypg.NewBackend(db.DB, redisClient.Redis, store, emailService, cfg, log)

	registry := storefront.NewRegistry(func(workspaceID string) storefront.Gateway {
		return backend.Client(workspaceID)
	}, storefront.Options{
		Store:      store,
		KeyPrefix:  cfg.Persist.KeyPrefix,
		Checkout:   cfg.Checkout,
		ToastLimit: 20,
		Logger:     log,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go registry.Run(ctx, cfg.Session.SweepInterval, cfg.Session.IdleTimeout)

	server := http.NewServer(cfg, routes.Dependencies{
		Registry: registry,
		Catalog:  catalog.NewService(backend, log),
		Accounts: backend,
		PDF:      pdf.NewService(cfg),
		Config:   cfg,
		Logger:   log,
	}, map[string]http.HealthChecker{
		"database": db,
		"redis":    redisClient,
	}, redisClient.Redis, log)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")
	stop()

	// Give server 30 seconds to shutdown gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	if err := registry.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to persist workspaces")
	}

	log.Info("Server shutdown completed")
}
