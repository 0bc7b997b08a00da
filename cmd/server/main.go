package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"nannylink/internal/api"
	"nannylink/internal/config"
	"nannylink/internal/database"
	"nannylink/internal/domain"
	"nannylink/internal/events"
	"nannylink/internal/export"
	"nannylink/internal/ledger"
	"nannylink/internal/logging"
	"nannylink/internal/metrics"
	"nannylink/internal/repository"
	"nannylink/internal/service"
	"nannylink/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	cache := initSummaryCache(ctx, cfg, &logger)
	eventBus := events.NewEventBus()

	coreLedger := ledger.New(db, &logger)
	cachedLedger := ledger.NewCached(coreLedger, cache, &logger)
	watcher := ledger.NewWatcher(eventBus, cachedLedger, &logger)

	retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	refreshWorker := worker.NewRefreshWorker(db, cachedLedger, retryPolicy, cfg.Ledger.WorkerBatchSize, &logger)
	go refreshWorker.Start(ctx)

	relationshipService := service.NewRelationshipService(db, eventBus, &logger)
	scheduleService := service.NewScheduleService(db, eventBus, &logger)
	paymentService := service.NewPaymentService(db, eventBus, &logger)
	userService := service.NewUserService(db, &logger)
	maintenanceService := service.NewMaintenanceService(db, eventBus, cfg.MaintenanceAllowed(), &logger)
	exporter := export.NewExporter(db, cachedLedger, cfg.Exports.Path, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		go serveMetrics(cfg.Monitoring.PrometheusPort, &logger)
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled; running worker only")
		<-ctx.Done()
		return nil
	}

	apiServer := api.NewHTTPServer(cfg.API, api.Deps{
		Relationships: relationshipService,
		Schedule:      scheduleService,
		Payments:      paymentService,
		Users:         userService,
		Maintenance:   maintenanceService,
		Summarizer:    cachedLedger,
		Store:         db,
		Watcher:       watcher,
		Exporter:      exporter,
	}, &logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return apiServer.Shutdown(shutdownCtx)
}

func initSummaryCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.SummaryCache {
	ttl := time.Duration(cfg.Ledger.CacheTTLSeconds) * time.Second
	memory := repository.NewMemorySummaryCache(ttl)

	if !cfg.Redis.Enabled {
		logger.Info().Msg("redis disabled, using in-memory summary cache")
		return memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable at startup, failover cache engaged")
	}
	redisCache := repository.NewRedisSummaryCache(client, ttl)
	return repository.NewFailoverSummaryCache(redisCache, memory, logger)
}

func serveMetrics(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
