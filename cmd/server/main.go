package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/V4T54L/server-logs/internal/adapter/api"
	"github.com/V4T54L/server-logs/internal/adapter/api/handler"
	"github.com/V4T54L/server-logs/internal/adapter/metrics"
	"github.com/V4T54L/server-logs/internal/adapter/repository/postgres"
	"github.com/V4T54L/server-logs/internal/adapter/repository/sqlite"
	"github.com/V4T54L/server-logs/internal/domain"
	"github.com/V4T54L/server-logs/internal/pkg/config"
	"github.com/V4T54L/server-logs/internal/pkg/logger"
	"github.com/V4T54L/server-logs/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	db, repo, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open log store", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := usecase.PrepareStore(ctx, repo, cfg.SeedSampleData, logger); err != nil {
		logger.Error("failed to prepare log store", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	// --- Start Admin and Metrics Server ---
	adminServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: api.NewAdminRouter(m),
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Initialize Use Cases and Handlers ---
	queryUseCase := usecase.NewQueryLogsUseCase(repo, logger)
	ingestUseCase := usecase.NewIngestLogUseCase(repo, logger)
	logsHandler := handler.NewLogsHandler(queryUseCase, ingestUseCase, logger, m, cfg.MaxBodyBytes)

	// --- Initialize API Server ---
	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(logger, logsHandler, m),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting log api server", "addr", apiServer.Addr, "driver", cfg.DatabaseDriver)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("log api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}

// openStore returns the connection pool and the repository for the configured driver.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, domain.LogRepository, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to postgres")
		return db, postgres.NewLogRepository(db, logger), nil
	default:
		db, err := sqlite.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("opened sqlite store", "path", cfg.DatabasePath)
		return db, sqlite.NewLogRepository(db, logger), nil
	}
}
