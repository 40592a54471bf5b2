package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/camphub/assetstore/internal/api"
	"github.com/camphub/assetstore/internal/buckets"
	"github.com/camphub/assetstore/internal/cache"
	"github.com/camphub/assetstore/internal/config"
	"github.com/camphub/assetstore/internal/files"
	"github.com/camphub/assetstore/internal/storage"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(os.Getenv("ASSETSTORE_CONFIG"))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := buildClient(ctx, cfg, logger)

	registry := buckets.NewRegistry(cfg.Store.BucketPrefix, logger)
	if err := registry.EnsureAll(ctx, client); err != nil {
		logger.Fatal("failed to ensure buckets", zap.Error(err))
	}

	promRegistry := prometheus.NewRegistry()
	caches := files.NewCaches(files.CacheConfig{
		GeneralTTL:    cfg.Cache.GeneralTTL,
		GeneralSweep:  cfg.Cache.GeneralSweep,
		MetadataTTL:   cfg.Cache.MetadataTTL,
		MetadataSweep: cfg.Cache.MetadataSweep,
		MediaTTL:      cfg.Cache.MediaTTL,
		MediaSweep:    cfg.Cache.MediaSweep,
	}, cache.NewMetrics(promRegistry))
	caches.StartSweepers(ctx)

	validator := files.NewValidator(cfg.Upload.AllowedTypes, cfg.Upload.MaxFileSize)
	service := files.NewService(client, registry, caches, validator,
		files.NewImageRenderer(), logger)

	server := api.NewServer(cfg, logger, service, promRegistry)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel() // stops cache sweepers

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("asset store started",
		zap.String("store_mode", cfg.Store.Mode),
		zap.Int("port", cfg.Server.Port))

	if err := server.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func buildClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) storage.Client {
	var client storage.Client
	var err error

	switch cfg.Store.Mode {
	case "minio":
		client, err = storage.NewMinIOClient(storage.MinIOConfig{
			Endpoint:  cfg.Store.Endpoint,
			Region:    cfg.Store.Region,
			AccessKey: cfg.Store.AccessKey,
			SecretKey: cfg.Store.SecretKey,
			UseSSL:    cfg.Store.UseSSL,
			PathStyle: cfg.Store.PathStyle,
		}, logger)
	case "s3":
		client, err = storage.NewS3Client(ctx, storage.S3Config{
			Endpoint:  cfg.Store.Endpoint,
			Region:    cfg.Store.Region,
			AccessKey: cfg.Store.AccessKey,
			SecretKey: cfg.Store.SecretKey,
			PathStyle: cfg.Store.PathStyle,
		}, logger)
	case "memory":
		// Ephemeral store for local development only.
		client = storage.NewMemClient()
	default:
		logger.Fatal("invalid store mode", zap.String("mode", cfg.Store.Mode))
	}
	if err != nil {
		logger.Fatal("failed to create store client", zap.Error(err))
	}

	if cfg.Store.Retries > 0 {
		policy := storage.NewRetryPolicy(
			storage.WithMaxAttempts(cfg.Store.Retries),
			storage.WithRetryLogger(logger),
		)
		client = storage.NewRetryClient(client, policy)
	}

	return client
}
