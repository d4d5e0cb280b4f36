// Package main initializes and starts the storefront API server,
// setting up configuration, logging, the database connection,
// repositories, services, and handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/evermart/storefront/internal/config"
	"github.com/evermart/storefront/internal/db"
	"github.com/evermart/storefront/internal/logger"
	"github.com/evermart/storefront/internal/repository"
	"github.com/evermart/storefront/internal/server/handler/http"
	"github.com/evermart/storefront/internal/service"
	"github.com/evermart/storefront/internal/token"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Periodically drop carts nobody has touched in a while.
	db.StartAbandonedCartCleaner(context.Background(), postgresDB,
		time.Hour,      // interval
		7*24*time.Hour, // retention: 7 days
		zapLogger,
	)

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	catalogRepo := repository.NewPostgresCatalogRepository(postgresDB)
	cartRepo := repository.NewPostgresCartRepository(postgresDB)
	orderRepo := repository.NewPostgresOrderRepository(postgresDB)

	// Bearer tokens issued at sign-in and verified by the middleware.
	tokens, err := token.NewManager(options.TokenSecret, 24*time.Hour)
	if err != nil {
		zapLogger.Fatal("cannot init token manager", zap.Error(err))
	}

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, tokens)
	catalogService := service.NewCatalogService(catalogRepo)
	cartService := service.NewCartService(cartRepo, catalogRepo)
	orderService := service.NewOrderService(orderRepo, catalogRepo)

	// Create HTTP handlers for each resource.
	authHandler := &http.AuthHandler{AuthService: authService}
	cartHandler := &http.CartHandler{CartService: cartService}
	catalogHandler := &http.CatalogHandler{CatalogService: catalogService}
	orderHandler := &http.OrderHandler{OrderService: orderService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, cartHandler, catalogHandler, orderHandler, tokens, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
