package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/table"
	"github.com/JonMunkholm/datatable/internal/web"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Long: `Start the HTTP server.

The server provides:
  • The data table at http://localhost:PORT/
  • JSON API under /api (rows, export, regions)
  • Health check at /healthz and Prometheus metrics at /metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides SERVER_PORT)")
	return cmd
}

// runServe runs the server until ctx is cancelled, then drains exports and
// shuts down gracefully.
func runServe(ctx context.Context, cfg *config.Config) error {
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upstream", cfg.Upstream.BaseURL,
		"cache", cfg.Cache.Mode,
		"export_max_concurrent", cfg.Export.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	up, err := newUpstream(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := up.close(); err != nil {
			slog.Warn("close page cache", "error", err)
		}
	}()

	registry := table.NewRegistry(table.RegistryOptions{
		Fetcher:     up.client,
		IdleTimeout: cfg.Views.IdleTimeout,
		MaxRows:     cfg.Views.MaxRows,
		Logger:      slog.Default(),
	})
	defer registry.Close()

	limiter := table.NewExportLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime)
	exporter := table.NewExporter(up.client, limiter, cfg.Export.FileName, slog.Default())

	server := web.NewServer(web.Options{
		Config:   cfg,
		Registry: registry,
		Exporter: exporter,
		Fetcher:  up.client,
		Health:   up.health,
		Logger:   slog.Default(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Let running exports finish before the listener closes.
	if status := limiter.Status(); status.Active > 0 {
		slog.Info("waiting for exports to complete", "active", status.Active)
		start := time.Now()
		if err := limiter.WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("exports did not complete in time", "error", err)
		} else {
			slog.Info("all exports completed", "waited", time.Since(start))
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
