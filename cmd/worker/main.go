package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pharmaflow/pharmaflow/internal/alerts"
	"github.com/pharmaflow/pharmaflow/internal/app"
	"github.com/pharmaflow/pharmaflow/internal/backend"
	jobmetrics "github.com/pharmaflow/pharmaflow/internal/jobs"
	"github.com/pharmaflow/pharmaflow/internal/observability"
	"github.com/pharmaflow/pharmaflow/internal/platform/cache"
	"github.com/pharmaflow/pharmaflow/internal/stock"
	"github.com/pharmaflow/pharmaflow/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if cfg.BackendServiceToken == "" {
		logger.Error("BACKEND_SERVICE_TOKEN is required for scheduled jobs")
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	client := backend.New(backend.Config{BaseURL: cfg.BackendURL, Timeout: cfg.BackendTimeout, Observer: metrics}, logger)
	stockService := stock.NewService(backend.NewStockStore(client))
	alertService := alerts.NewService(backend.NewAlertStore(client))

	expiryJob := jobs.NewExpiryScanJob(stockService, cfg.BackendServiceToken, logger, jobMetrics)
	digestJob := jobs.NewAlertDigestJob(alertService, cfg.BackendServiceToken, logger, jobMetrics)

	expiryTask, err := jobs.NewExpiryScanTask(jobs.ExpiryScanPayload{})
	if err != nil {
		logger.Error("build expiry scan task", slog.Any("error", err))
		os.Exit(1)
	}
	digestTask, err := jobs.NewAlertDigestTask(jobs.AlertDigestPayload{})
	if err != nil {
		logger.Error("build alert digest task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cache.QueueOpt(cfg.RedisAddr),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStockExpiryScan, Handler: expiryJob.Handle},
			{Type: jobs.TaskAlertsDigest, Handler: digestJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ExpiryScanCron, Task: expiryTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.AlertDigestCron, Task: digestTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting worker metrics server", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
