package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ordersleuth/ordersleuth/internal/config"
	"github.com/ordersleuth/ordersleuth/internal/core"
	"github.com/ordersleuth/ordersleuth/internal/logging"
	"github.com/ordersleuth/ordersleuth/internal/web"
)

func main() {
	// A .env file wins over the inherited environment
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file, using process environment")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_files", cfg.Upload.MaxFiles,
		"action_max_concurrent", cfg.Action.MaxConcurrent,
		"session_ttl", cfg.Session.TTL,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Create the pipeline service with config
	service := core.NewService(core.ServiceOptions{
		MaxConcurrentActions: cfg.Action.MaxConcurrent,
		ActionMaxWait:        cfg.Action.MaxWaitTime,
		MaxFilesPerUpload:    cfg.Upload.MaxFiles,
		SessionTTL:           cfg.Session.TTL,
		SweepInterval:        cfg.Session.SweepInterval,
		ActivityLogSize:      cfg.Action.HistorySize,
		DefaultColumns: core.AnalysisColumns{
			Buyer:   cfg.Analysis.BuyerColumn,
			Date:    cfg.Analysis.DateColumn,
			Address: cfg.Analysis.AddressColumn,
		},
	})
	defer service.Close()

	slog.Info("analyzer ready",
		"buyer_column", cfg.Analysis.BuyerColumn,
		"date_column", cfg.Analysis.DateColumn,
		"address_column", cfg.Analysis.AddressColumn,
		"profiles", len(core.Profiles()),
	)

	server := web.NewServer(service, cfg)

	// Shutdown on SIGINT/SIGTERM: drain running actions, then stop the
	// listener.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight actions to finish (with timeout)
		status := service.LimiterStatus()
		if status.Active > 0 {
			slog.Info("waiting for actions to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("actions did not complete in time", "error", err)
			} else {
				slog.Info("all actions completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
