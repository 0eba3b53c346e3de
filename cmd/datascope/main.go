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

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/willibrandon/datascope/internal/app"
	"github.com/willibrandon/datascope/internal/config"
	"github.com/willibrandon/datascope/internal/gateway"
	"github.com/willibrandon/datascope/internal/logger"
)

var (
	// Version info (set by ldflags)
	version = "dev"

	// Flags
	configPath   string
	debug        bool
	serviceURL   string
	outputFormat string

	// baseURL is the resolved data service address, for error guidance.
	baseURL string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Without a subcommand it starts the
// interactive browser.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "datascope [file.db]",
		Short: "Browse SQLite databases through the Datascope data service",
		Long: `datascope uploads a SQLite database to the Datascope data service and
lets you browse its tables, run and explain queries, inspect column
statistics, view the schema diagram and ask the AI assistant for SQL.

Run without a subcommand to open the interactive browser. When a file is
given it is uploaded on start.

One-shot commands:
  datascope tables shop.db                 List tables and columns
  datascope table shop.db orders --page 2  Print one page of a table
  datascope query shop.db "SELECT ..."     Run a query
  datascope explain shop.db "SELECT ..."   Show the query plan
  datascope insights shop.db orders        Column statistics
  datascope ask shop.db "top customers"    Generate SQL from a prompt`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runTUI(cmd.Context(), path)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/datascope/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "url", "", "data service base URL (overrides service.base_url)")

	// Add subcommands
	rootCmd.AddCommand(
		newPingCmd(),
		newTablesCmd(),
		newTableCmd(),
		newQueryCmd(),
		newExplainCmd(),
		newInsightsCmd(),
		newDiagramCmd(),
		newAskCmd(),
		newDownloadCmd(),
		newHistoryCmd(),
		newSnippetsCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigFromPath(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if serviceURL != "" {
		cfg.Service.BaseURL = serviceURL
		if err := config.ValidateConfig(cfg); err != nil {
			return nil, err
		}
	}
	if debug {
		cfg.Debug = true
	}
	baseURL = cfg.Service.BaseURL
	return cfg, nil
}

// initLogging starts the rotating file logger. Callers defer logger.Close.
func initLogging(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger.InitLogger(logLevel, cfg.LogFile)
	if cfg.Debug {
		fmt.Fprintf(os.Stderr, "Debug mode: Logs written to %s\n", logger.LogPath)
		logger.Debug("datascope starting", "version", version, "config", configPath, "service", cfg.Service.BaseURL)
	}
}

// newClient creates the data service client for cfg.
func newClient(cfg *config.Config) *gateway.Client {
	return gateway.New(cfg.Service.BaseURL, gateway.WithTimeout(cfg.Service.Timeout))
}

// printError writes err for a terminal user. Transport and server failures
// get troubleshooting guidance.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), describeError(err, baseURL))
}

func describeError(err error, url string) string {
	if errors.Is(err, context.Canceled) {
		return "interrupted"
	}
	var rerr *gateway.RemoteOperationError
	if errors.As(err, &rerr) && (rerr.Err != nil || rerr.Status >= 500) {
		return app.FormatServiceError(err, url)
	}
	return gateway.Message(err)
}
