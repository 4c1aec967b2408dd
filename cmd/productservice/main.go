package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mpatel/shopline-backend/config"
	"github.com/mpatel/shopline-backend/internal/app/controller"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/internal/app/service"
	"github.com/mpatel/shopline-backend/internal/authclient"
	"github.com/mpatel/shopline-backend/internal/db"
	"github.com/mpatel/shopline-backend/internal/middleware"
	"github.com/mpatel/shopline-backend/internal/router"
	"github.com/mpatel/shopline-backend/internal/storage"
	"github.com/mpatel/shopline-backend/pkg/logger"
	"github.com/mpatel/shopline-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting SHOPLINE Product Service", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Seed database (optional)
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize Redis (shared cart snapshots)
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize Redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	// Initialize repositories
	productRepo := repository.NewProductRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	wishlistRepo := repository.NewWishlistRepository(db.GetDB())

	// Initialize services
	productService := service.NewProductService(productRepo, categoryRepo)
	cartService := service.NewCartService(
		cartRepo,
		productRepo,
		wishlistRepo,
		redis.NewCartShareStore(),
		cfg.Redis.ShareTTL,
		cfg.Pricing.ShippingMethods,
	)
	orderService := service.NewOrderService(
		db.GetDB(),
		orderRepo,
		cartRepo,
		cfg.Pricing.TaxRate,
		cfg.Pricing.ShippingFee,
	)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)

	// Initialize storage
	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Initialize controllers
	productController := controller.NewProductController(productService, s3Storage)
	cartController := controller.NewCartController(cartService, cfg.Pricing.TaxRate)
	orderController := controller.NewOrderController(orderService)
	wishlistController := controller.NewWishlistController(wishlistService)

	// Initialize middleware; tokens are resolved by the user service
	authMiddleware := middleware.NewAuthMiddleware(authclient.NewClient(cfg.Auth.UserServiceURL))

	// Setup router
	r := router.NewProductRouter(
		productController,
		cartController,
		orderController,
		wishlistController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Product service started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
