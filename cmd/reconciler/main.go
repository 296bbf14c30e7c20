package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/randdane/life-log/internal/config"
	"github.com/randdane/life-log/internal/logger"
	"github.com/randdane/life-log/internal/objectstore/s3"
	"github.com/randdane/life-log/internal/reconciler"
	"github.com/randdane/life-log/internal/repository/postgres"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, "reconciler")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting reconciler service",
		zap.String("environment", cfg.Service.Environment),
		zap.Duration("sweep_interval", cfg.Reconciler.SweepInterval()),
		zap.Duration("grace_period", cfg.Reconciler.GracePeriod()))

	ctx := context.Background()

	// Initialize Postgres client
	pgClient, err := postgres.NewClient(ctx, cfg.Database.URL, log)
	if err != nil {
		log.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer pgClient.Close()

	repo := postgres.NewRepository(pgClient, log)
	if err := repo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Initialize object store client
	store, err := s3.NewClient(ctx, cfg.ObjectStore, log)
	if err != nil {
		log.Fatal("Failed to create S3 client", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal("Failed to ensure bucket exists", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	metrics := reconciler.NewMetrics(registry)
	sweeper := reconciler.NewReconciler(store, repo,
		cfg.ObjectStore.KeyPrefix, cfg.Reconciler.GracePeriod(), metrics, log)
	runner := reconciler.NewRunner(sweeper, cfg.Reconciler.SweepInterval(), log)

	// Start health check and metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := repo.Ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		mux.HandleFunc("/reconcile", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			runner.Trigger()
			w.WriteHeader(http.StatusAccepted)
		})

		addr := ":" + cfg.Reconciler.HealthCheckPort
		log.Info("Health check server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	runnerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Info("Reconciler runner starting")

	go runner.Start(runnerCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down reconciler gracefully")
	cancel()
}
