package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/tzevents/internal/config"
	"github.com/joshua-takyi/tzevents/internal/connect"
	"github.com/joshua-takyi/tzevents/internal/container"
	"github.com/joshua-takyi/tzevents/internal/routes"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting tzevents API server", "environment", cfg.Environment, "storage", cfg.StorageDriver)

	var (
		stores      container.Stores
		mongoClient *mongo.Client
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		stores = container.MemoryStores()
		logger.Warn("Using in-memory storage; data is lost on restart")
	default:
		mongoClient, err = connect.MongoDBConnect(cfg.MongoURI())
		if err != nil {
			logger.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		logger.Info("Connected to MongoDB successfully", "database", cfg.MongoDBDatabase)

		mongoStores, repo := container.MongoStores(mongoClient, cfg.MongoDBDatabase)
		stores = mongoStores
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Error("Failed to create indexes", "error", err)
		}
		cancel()
	}

	redisClient, err := connect.RedisConnect(cfg.RedisURL)
	if err != nil {
		// the cache is optional; run without it
		logger.Warn("Redis unavailable, profile cache disabled", "error", err)
	} else if redisClient != nil {
		logger.Info("Connected to Redis successfully")
	}

	appContainer := container.NewContainer(cfg, logger, stores, mongoClient, redisClient)
	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := connect.RedisDisconnect(); err != nil {
		logger.Error("Error disconnecting from Redis", "error", err)
	}
	if err := connect.MongoDBDisconnect(); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
