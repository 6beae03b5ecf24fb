package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/table"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// reportError prints the user-facing form of upstream failures and logs the
// technical cause at debug level.
func reportError(w io.Writer, err error) {
	var ue *table.UserError
	if errors.As(err, &ue) {
		slog.Debug("command failed", "error", ue.Technical)
		fmt.Fprintln(w, "error:", table.FormatUserError(ue.Technical))
		return
	}
	fmt.Fprintln(w, "error:", err)
}

// globalFlags override configuration for every command.
type globalFlags struct {
	baseURL  string
	logLevel string
	cache    string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "datatable",
		Short: "Server-rendered table of generated fake people",
		Long: `datatable serves an infinitely scrolling table of fake people produced by
the random data generator API, with controls for region, errors per record
and seed, and CSV export.

Quick Start:
  datatable serve                       # start the web UI on :8080
  datatable rows --region Poland        # print page 1 as a table
  datatable export --seed 7 -o out.csv  # write the CSV export
  datatable regions                     # list selectable regions`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.baseURL, "upstream", "", "generator API base URL (overrides UPSTREAM_BASE_URL)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	pf.StringVar(&flags.cache, "cache", "", "page cache: memory, redis or none (overrides CACHE_MODE)")

	root.AddCommand(
		newServeCmd(&flags),
		newRowsCmd(&flags),
		newExportCmd(&flags),
		newRegionsCmd(),
	)
	return root
}

// loadConfig reads the environment, applies flag overrides, validates the
// result and sets up logging to logOut.
func loadConfig(flags *globalFlags, logOut io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if flags.baseURL != "" {
		cfg.Upstream.BaseURL = flags.baseURL
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.cache != "" {
		cfg.Cache.Mode = flags.cache
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logging.Setup(logOut, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}
