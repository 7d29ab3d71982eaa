package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-composer/internal/config"
	"order-composer/internal/database"
	"order-composer/internal/events"
	"order-composer/internal/handler"
	"order-composer/internal/metrics"
	"order-composer/internal/middleware"
	"order-composer/internal/repository"
	"order-composer/internal/router"
	"order-composer/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// rateLimitClients bounds the number of per-client buckets kept in memory.
const rateLimitClients = 10_000

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting order-composer API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// Order events
	publisher := events.NewPublisher(cfg.Kafka, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	itemRepo := repository.NewOrderItemRepository(pool, logger)

	// Initialize services
	activationService := service.NewActivationService(orderRepo, itemRepo, publisher, appMetrics, logger)
	catalogService := service.NewCatalogService(orderRepo, productRepo, appMetrics, logger)
	itemService := service.NewOrderItemService(orderRepo, itemRepo, productRepo, activationService, publisher, appMetrics, cfg.Listing, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Catalog:   handler.NewCatalogHandler(catalogService, logger),
		Order:     handler.NewOrderHandler(itemService, activationService, logger),
		OrderItem: handler.NewOrderItemHandler(itemService, cfg.Listing, logger),
	}

	rateLimit, err := middleware.RateLimit(cfg.RateLimit, rateLimitClients, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	// Initialize router
	mux := router.New(handlers, router.Options{
		APIKey:    cfg.Auth.APIKey,
		RateLimit: rateLimit,
		Metrics:   appMetrics,
		Gatherer:  registry,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
