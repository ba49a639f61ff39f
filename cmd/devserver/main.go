package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/takumi/specgen/internal/api"
	"github.com/takumi/specgen/internal/config"
	"github.com/takumi/specgen/internal/logger"
	"github.com/takumi/specgen/internal/pipeline"
	"github.com/takumi/specgen/internal/repository"
	"github.com/takumi/specgen/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLog := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "specgen-devserver",
		Environment: cfg.Log.Environment,
		LogFile:     cfg.Log.File,
		LogFileOnly: cfg.Log.FileOnly,
	})
	logger.SetDefaultLogger(appLog)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize database")
	}

	jobRepo := repository.NewJobRepository(db)

	// Initialize storage (local filesystem or any S3-compatible service)
	objectStorage, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize storage")
	}

	// Ensure bucket exists
	ctx := context.Background()
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	// Initialize the simulated pipeline
	runner := pipeline.NewRunner(jobRepo, objectStorage, &cfg.Pipeline, appLog)

	// Setup router
	router := api.SetupRouter(jobRepo, objectStorage, runner, &cfg.Server, appLog)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLog.Infof("Starting dev server: port=%d, mode=%s", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Fatal("Server forced to shutdown")
	}

	appLog.Info("Server exited")
}
