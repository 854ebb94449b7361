package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/timvw/iterm-relay/internal/activity"
	"github.com/timvw/iterm-relay/internal/automation"
	telem "github.com/timvw/iterm-relay/internal/otel"
	"github.com/timvw/iterm-relay/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Long: `Serve the Model Context Protocol over stdio.

The assistant's MCP client owns stdin and stdout, so all diagnostics go
to stderr. Tool failures come back to the caller as plain-text results;
the server itself only exits when the transport closes or on SIGINT or
SIGTERM.

Register with an MCP client as:

  {"command": "iterm-relay", "args": ["serve"]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command) error {
	// Stdout belongs to the MCP transport from here on.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.ConfigFile != "" {
		logger.Info("config loaded", "file", cfg.ConfigFile)
	}

	// Surface a broken host setup at startup instead of on the first tool
	// call. Not fatal: the binary may be probed in CI off-macOS.
	if flagOsascript == "" {
		if err := automation.Detect(); err != nil {
			logger.Warn("osascript not found; tool calls will fail", "err", err)
		}
	}

	// Wire build version into OTEL service metadata.
	telem.Version = Version

	// Initialize OTEL (no-op if no endpoint configured).
	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		logger.Warn("otel init failed", "err", err)
	}
	var metrics *telem.Metrics
	if tel != nil {
		metrics = tel.Metrics
		defer tel.Shutdown(ctx)
	}

	// Feed a monitor process when one is listening; drops silently otherwise.
	socketPath := cfg.ActivitySocket
	if socketPath == "" {
		socketPath = activity.DefaultSocketPath()
	}
	reporter := activity.NewReporter(socketPath)
	defer reporter.Close()

	srv := server.New(server.Options{
		Runner:   automation.Metered{Runner: newRunner(cfg, logger), Metrics: metrics},
		Logger:   logger,
		Metrics:  metrics,
		Reporter: reporter,
		Version:  Version,
	})

	logger.Info("serving MCP over stdio", "version", Version)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
