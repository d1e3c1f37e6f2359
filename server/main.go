package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-converter/internal/config"
	"github.com/phambaophuc/image-converter/internal/converter"
	"github.com/phambaophuc/image-converter/internal/http/handlers"
	"github.com/phambaophuc/image-converter/internal/http/routes"
	applog "github.com/phambaophuc/image-converter/internal/logger"
	"github.com/phambaophuc/image-converter/internal/service"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := applog.New(cfg)
	defer logger.Sync()

	filter, err := converter.ParseFilter(cfg.Converter.Filter)
	if err != nil {
		logger.Fatal("Invalid converter filter", zap.Error(err))
	}
	policy, err := converter.ParseInvalidFormatPolicy(cfg.Converter.InvalidFormatPolicy)
	if err != nil {
		logger.Fatal("Invalid format policy", zap.Error(err))
	}

	for _, dir := range []string{cfg.Storage.UploadPath, cfg.Storage.OutputPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("Failed to create directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	// Initialize services
	conv := converter.New(logger.Named("converter"), converter.Options{
		Quality:             cfg.Converter.Quality,
		Filter:              filter,
		InvalidFormatPolicy: policy,
		MaxTargetSize:       cfg.Converter.MaxTargetSize,
		MaxSourcePixels:     cfg.Converter.MaxSourcePixels,
	})

	storage, err := service.NewStorageService(cfg, logger.Named("storage"))
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	defer storage.Close()

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var queue handlers.Queue
	queueService, err := service.NewQueueService(cfg, conv, storage, logger.Named("queue"))
	if err != nil {
		// Continue without queue service for synchronous conversion
		logger.Warn("Failed to initialize queue service", zap.Error(err))
	} else {
		queue = queueService
		defer queueService.Close()

		for i := 1; i <= cfg.RabbitMQ.Workers; i++ {
			if err := queueService.StartWorker(workerCtx, i); err != nil {
				logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
			}
		}
	}

	go cleanupCache(workerCtx, storage, cfg.Storage.CacheDuration, logger)

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(conv, storage, queue, logger.Named("http"), cfg)

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.NewRouter(imageHandler, logger.Named("http"))

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	stopWorkers()

	logger.Info("Server exited")
}

// cleanupCache periodically drops cache entries that have no expiry
func cleanupCache(ctx context.Context, storage *service.StorageService, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := storage.CleanupCache(ctx); err != nil {
				logger.Warn("Cache cleanup failed", zap.Error(err))
			}
		}
	}
}
