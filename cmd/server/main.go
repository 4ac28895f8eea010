package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/catalogmerge/internal/config"
	"github.com/JonMunkholm/catalogmerge/internal/core"
	"github.com/JonMunkholm/catalogmerge/internal/logging"
	"github.com/JonMunkholm/catalogmerge/internal/metrics"
	"github.com/JonMunkholm/catalogmerge/internal/store"
	"github.com/JonMunkholm/catalogmerge/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"merge_max_concurrent", cfg.Merge.MaxConcurrent,
		"refresh_interval", cfg.Catalog.RefreshInterval,
		"database", cfg.Database.Enabled(),
	)

	ctx := context.Background()

	var (
		sinks   []core.Sink
		archive web.RunArchive
	)

	if cfg.Database.Enabled() {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		slog.Info("connected to database", "name", store.DatabaseName(cfg.Database.URL))

		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create schema", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, pg)
		archive = pg
	}

	if cfg.Catalog.SQLitePath != "" {
		snap := store.NewSQLiteStore(cfg.Catalog.SQLitePath)
		sinks = append(sinks, snap)
		slog.Info("sqlite snapshot enabled", "path", snap.Path())
	}

	service := core.NewService(core.ServiceConfig{
		Limiter:     core.NewRunLimiter(cfg.Merge.MaxConcurrent, cfg.Merge.MaxWaitTime),
		Metrics:     metrics.NewMetrics(prometheus.DefaultRegisterer),
		Sinks:       sinks,
		HistorySize: cfg.Merge.HistorySize,
		Timeout:     cfg.Merge.Timeout,
	})

	server := web.NewServer(service, cfg, web.Options{
		Archive: archive,
		Metrics: promhttp.Handler(),
	})

	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go service.StartRefreshScheduler(jobCtx, core.RefreshConfig{
		FullPath:  cfg.Catalog.FullPath,
		LightPath: cfg.Catalog.LightPath,
		Interval:  cfg.Catalog.RefreshInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for merges to complete", "active", status.Active)
			if err := service.Shutdown(shutdownCtx); err != nil {
				slog.Warn("merges did not complete in time", "error", err)
			} else {
				slog.Info("all merges completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
