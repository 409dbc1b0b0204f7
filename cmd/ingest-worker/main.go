package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roasbooster/analytics-backend/internal/catalog"
	"github.com/roasbooster/analytics-backend/internal/facebook"
	"github.com/roasbooster/analytics-backend/internal/ingest"
	"github.com/roasbooster/analytics-backend/internal/reporting"
	"github.com/roasbooster/analytics-backend/internal/scheduler"
	"github.com/roasbooster/analytics-backend/internal/shopify"
	"github.com/roasbooster/analytics-backend/internal/snapshot"
	"github.com/roasbooster/analytics-backend/internal/stream"
	"github.com/roasbooster/analytics-backend/pkg/config"
	"github.com/roasbooster/analytics-backend/pkg/db"
	"github.com/roasbooster/analytics-backend/pkg/logger"
	"github.com/roasbooster/analytics-backend/pkg/metrics"
	"github.com/roasbooster/analytics-backend/pkg/migrate"
	"github.com/roasbooster/analytics-backend/pkg/redis"
)

const workerLockTTL = 10 * time.Minute

func main() {
	logg := logger.New(logger.Options{ServiceName: "ingest-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "ingest-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	tz, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		logg.Error(context.Background(), "invalid reporting timezone", err)
		os.Exit(1)
	}

	accounts, err := cfg.Facebook.AccountList()
	if err != nil {
		logg.Error(context.Background(), "invalid ad account list", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	shopClient := shopify.New(cfg.Shopify, logg)
	fbFetcher := facebook.NewFetcher(facebook.New(cfg.Facebook, logg), accounts, logg)

	ingestRepo := ingest.NewRepository(gormDB)
	cursors := ingest.NewCursorStore(gormDB)

	ordersService := ingest.NewOrdersService(shopClient, ingestRepo, ingestRepo, cursors, logg)
	insightsService := ingest.NewInsightsService(fbFetcher, ingestRepo, tz, logg)
	refresher := catalog.NewRefresher(shopClient, catalog.NewRepository(gormDB), cursors, cfg.Jobs.CatalogBatchSize, logg)

	engine := reporting.NewEngine(reporting.NewRepository(gormDB), cfg.Reporting.MarginFactor, logg)
	archiver := snapshot.NewArchiver(engine, snapshot.NewRepository(gormDB), cfg.Snapshot.FloorDate, tz, logg)
	todayJob := stream.NewTodayCacheJob(engine, stream.NewCache(redisClient), tz)

	registry := prometheus.NewRegistry()
	jobMetrics := metrics.NewJobMetrics(registry)

	lock, err := scheduler.NewRedisLock(redisClient, redisClient.LockKey("ingest-worker"), workerLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build worker lock", err)
		os.Exit(1)
	}

	service, err := scheduler.NewService(scheduler.ServiceParams{
		Logger:  logg,
		Lock:    lock,
		Metrics: jobMetrics,
		Jobs: []scheduler.Job{
			{Name: "orders", Interval: cfg.Jobs.OrdersInterval, Run: ordersService.Run},
			{Name: "line-item-backfill", Interval: cfg.Jobs.OrdersInterval, Run: ordersService.BackfillLineItems},
			{Name: "insights", Interval: cfg.Jobs.InsightsInterval, Run: func(ctx context.Context) error {
				results, err := insightsService.Run(ctx)
				for _, result := range results {
					logg.Info(logg.WithFields(ctx, map[string]any{
						"table":   result.Table,
						"rows":    result.Rows,
						"success": result.Success,
					}), "insight table save")
				}
				return err
			}},
			{Name: "today-cache", Interval: cfg.Jobs.TodayInterval, Run: todayJob.Run},
			{Name: "catalog", Interval: cfg.Jobs.CatalogInterval, Run: refresher.Run},
			{Name: "snapshot", Interval: cfg.Jobs.SnapshotInterval, Run: archiver.Run},
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.Jobs.MetricsPort,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"metrics_port": cfg.Jobs.MetricsPort,
	})
	logg.Info(ctx, "starting ingest worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "ingest worker stopped unexpectedly", err)
		os.Exit(1)
	}
}
