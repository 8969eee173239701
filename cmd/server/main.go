package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/JonMunkholm/sheetsync/internal/catalog" // Register all datasets
	"github.com/JonMunkholm/sheetsync/internal/config"
	"github.com/JonMunkholm/sheetsync/internal/core"
	"github.com/JonMunkholm/sheetsync/internal/logging"
	"github.com/JonMunkholm/sheetsync/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"fetch_rps", cfg.Sheets.RequestsPerSecond,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"api_key_required", cfg.Security.RequireAPIKey,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	service := core.NewService(core.ServiceConfig{
		URLFormat:         cfg.Sheets.URLFormat,
		DefaultDocumentID: cfg.Sheets.DefaultDocumentID,
		FetchTimeout:      cfg.Sheets.FetchTimeout,
		MaxPageBytes:      cfg.Sheets.MaxPageBytes,
		UserAgent:         cfg.Sheets.UserAgent,
		RequestsPerSecond: cfg.Sheets.RequestsPerSecond,
		Burst:             cfg.Sheets.Burst,
		MaxConcurrent:     cfg.Import.MaxConcurrent,
		MaxWait:           cfg.Import.MaxWaitTime,
		RunTimeout:        cfg.Import.Timeout,
		ResultRetention:   cfg.Import.ResultRetention,
	})

	// Log registered datasets
	slog.Info("datasets registered", "count", core.Count())
	for _, info := range service.ListDatasets() {
		slog.Debug("dataset", "key", info.Key, "targets", len(info.Targets), "document", info.DocumentID)
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active imports to complete (with timeout)
		importStatus := service.LimiterStatus()
		if importStatus.Active > 0 {
			slog.Info("waiting for imports to complete", "active", importStatus.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
