package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"

	"bridge-local-platform/config"
	"bridge-local-platform/internal/app"
	"bridge-local-platform/internal/database"
	"bridge-local-platform/internal/server"

	_ "bridge-local-platform/docs" // Swagger document, regenerated by swag init
)

// @title           Bridge Local Platform API
// @version         1.0
// @description     Local-services marketplace: client job intake, contractor matching, operator quoting, payment and payout settlement.

// @contact.name   Bridge Local Operations
// @contact.email  ops@bridgelocal.test

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Initialize Redis Client ---
	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	dbPool, err := database.NewConnectionPool(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	if err := database.RunMigrations(cfg.DB, "migrations"); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.Seed(context.Background(), dbPool); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	validate := validator.New()

	application := app.New(cfg, dbPool, redisClient, validate)

	srv := server.NewServer(application)

	// --- Graceful Shutdown Handling ---
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	log.Println("Application gracefully stopped.")
}
