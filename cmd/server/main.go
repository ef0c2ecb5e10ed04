package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rollmark/rollmark/internal/config"
	"github.com/rollmark/rollmark/internal/domain/attendance"
	"github.com/rollmark/rollmark/internal/metrics"
	"github.com/rollmark/rollmark/internal/scheduler"
	"github.com/rollmark/rollmark/internal/source"
	"github.com/rollmark/rollmark/internal/sqlite"
	"github.com/rollmark/rollmark/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	importMetrics := metrics.NewImportMetrics(registry)

	factRepo := sqlite.NewFactRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)

	fetcher := source.NewClient(cfg.Import.FetchTimeout)
	importSvc := attendance.NewService(factRepo, fetcher, importMetrics, attendance.ServiceConfig{
		AttendanceURL: cfg.Import.AttendanceURL,
		RosterURL:     cfg.Import.RosterURL,
	}, logger)

	sched := scheduler.New(importSvc, logger)
	if cfg.Import.AttendanceURL == "" {
		logger.Warn("no attendance source URL configured, scheduled imports will fail until one is set")
	}
	sched.Start(cfg.Import.Interval, cfg.Import.RunImmediately)
	defer sched.Stop()

	auth := transport.NewAuth(sessionRepo, cfg.Import.Secret)
	router := transport.NewServer(importSvc, sessionRepo, auth, transport.ServerConfig{
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		SessionTTL:        cfg.Auth.SessionTTL,
		MetricsHandler:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
