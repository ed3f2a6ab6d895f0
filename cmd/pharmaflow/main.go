package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pharmaflow/pharmaflow/internal/alerts"
	"github.com/pharmaflow/pharmaflow/internal/app"
	"github.com/pharmaflow/pharmaflow/internal/assignments"
	"github.com/pharmaflow/pharmaflow/internal/auth"
	"github.com/pharmaflow/pharmaflow/internal/backend"
	"github.com/pharmaflow/pharmaflow/internal/dashboard"
	"github.com/pharmaflow/pharmaflow/internal/observability"
	"github.com/pharmaflow/pharmaflow/internal/platform/cache"
	"github.com/pharmaflow/pharmaflow/internal/shared"
	"github.com/pharmaflow/pharmaflow/internal/stock"
	"github.com/pharmaflow/pharmaflow/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessions := shared.NewSessionStore(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	metrics := observability.NewMetrics()

	client := backend.New(backend.Config{BaseURL: cfg.BackendURL, Timeout: cfg.BackendTimeout, Observer: metrics}, logger)

	stockService := stock.NewService(backend.NewStockStore(client))
	alertService := alerts.NewService(backend.NewAlertStore(client))
	assignmentService := assignments.NewService(backend.NewAssignmentStore(client))
	dashboardService := dashboard.NewService(stockService, alertService)

	queueOpt := cache.QueueOpt(cfg.RedisAddr)
	inspector := asynq.NewInspector(queueOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(queueOpt)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Sessions:          sessions,
		Idempotency:       shared.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL),
		AuthHandler:       auth.NewHandler(logger, sessions),
		StockHandler:      stock.NewHandler(logger, stockService),
		AlertsHandler:     alerts.NewHandler(logger, alertService),
		AssignmentHandler: assignments.NewHandler(logger, assignmentService),
		DashboardHandler:  dashboard.NewHandler(logger, dashboardService),
		JobHandler:        jobs.NewHandler(inspector, jobClient, logger),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
