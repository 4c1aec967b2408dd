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
	"github.com/mpatel/shopline-backend/internal/db"
	"github.com/mpatel/shopline-backend/internal/router"
	"github.com/mpatel/shopline-backend/internal/scheduler"
	"github.com/mpatel/shopline-backend/pkg/logger"
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

	logger.Info("Starting SHOPLINE User Service", map[string]interface{}{
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

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	tokenRepo := repository.NewTokenRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(userRepo, tokenRepo, cfg.Auth.TokenExpiry)

	// Start the token cleanup scheduler
	cleanupScheduler := scheduler.NewTokenCleanupScheduler(authService, cfg.Auth.CleanupCron)
	if err := cleanupScheduler.Start(); err != nil {
		logger.Fatal("Failed to start token cleanup scheduler", err)
	}
	defer cleanupScheduler.Stop()

	// Initialize controllers
	authController := controller.NewAuthController(authService)

	// Setup router
	r := router.NewUserRouter(authController, cfg)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("User service started successfully", map[string]interface{}{
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
