package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/randdane/life-log/internal/attachment"
	"github.com/randdane/life-log/internal/config"
	"github.com/randdane/life-log/internal/deleter"
	"github.com/randdane/life-log/internal/handler"
	"github.com/randdane/life-log/internal/logger"
	"github.com/randdane/life-log/internal/objectstore/s3"
	"github.com/randdane/life-log/internal/reconciler"
	"github.com/randdane/life-log/internal/repository"
	"github.com/randdane/life-log/internal/repository/postgres"
	"github.com/randdane/life-log/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx := context.Background()

	// Initialize Postgres client and schema
	pgClient, err := postgres.NewClient(ctx, cfg.Database.URL, log)
	if err != nil {
		log.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer pgClient.Close()

	repo := postgres.NewRepository(pgClient, log)
	if err := repo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Initialize object store client and bucket
	store, err := s3.NewClient(ctx, cfg.ObjectStore, log)
	if err != nil {
		log.Fatal("Failed to create S3 client", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal("Failed to ensure bucket exists", zap.Error(err))
	}

	// Initialize core components
	validator := attachment.NewSniffValidator(cfg.Limits.AllowedContentTypes)
	attachments := attachment.NewManager(store, repo, validator, attachment.Config{
		MaxFileBytes:     cfg.Limits.FileMaxBytes,
		MaxPerEvent:      cfg.Limits.AttachmentsPerEvent,
		KeyPrefix:        cfg.ObjectStore.KeyPrefix,
		PresignMaxExpiry: cfg.ObjectStore.PresignMaxExpiry(),
	}, log)

	cascade := deleter.NewCascadeDeleter(repo, store, log)

	eventService := service.NewEventService(repo, cascade,
		cfg.Limits, repository.TagMatchMode(cfg.Search.TagMatchMode), log)

	registry := prometheus.NewRegistry()
	metrics := reconciler.NewMetrics(registry)
	sweeper := reconciler.NewReconciler(store, repo,
		cfg.ObjectStore.KeyPrefix, cfg.Reconciler.GracePeriod(), metrics, log)

	// Initialize handler
	h := handler.NewHandler(eventService, attachments, sweeper,
		cfg.Service.AdminToken, registry, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
