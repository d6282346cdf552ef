package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booze-courier/internal/config"
	"booze-courier/internal/database"
	"booze-courier/internal/handler"
	"booze-courier/internal/notify"
	"booze-courier/internal/permission"
	"booze-courier/internal/repository"
	"booze-courier/internal/router"
	"booze-courier/internal/service"
)

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
	logger.Info().Msg("starting booze-courier API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(pool, logger)
	deliveryRepo := repository.NewDeliveryRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)
	driverRepo := repository.NewDriverRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	merchantRepo := repository.NewMerchantRepository(pool, logger)
	ratingRepo := repository.NewRatingRepository(pool, logger)

	// Initialize the capability guard
	guard := permission.NewGuard(userRepo, orderRepo, deliveryRepo, logger)

	// Initialize services
	notifier := notify.NewLogNotifier(logger)
	paymentService := service.NewPaymentService(paymentRepo, logger)
	orderService := service.NewOrderService(
		orderRepo, deliveryRepo, productRepo, userRepo, merchantRepo,
		paymentService, notifier, logger,
	)
	deliveryService := service.NewDeliveryService(
		deliveryRepo, orderRepo, driverRepo, userRepo,
		notifier, cfg.Dispatch, logger,
	)
	driverService := service.NewDriverService(driverRepo, userRepo, logger)
	ratingService := service.NewRatingService(ratingRepo, orderRepo, driverRepo, merchantRepo, logger)

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService, guard, logger)
	deliveryHandler := handler.NewDeliveryHandler(deliveryService, guard, logger)
	driverHandler := handler.NewDriverHandler(driverService, guard, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, guard, logger)
	ratingHandler := handler.NewRatingHandler(ratingService, guard, logger)

	// Initialize router
	mux := router.New(orderHandler, deliveryHandler, driverHandler, paymentHandler, ratingHandler, cfg, logger)

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
