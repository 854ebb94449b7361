package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/timvw/iterm-relay/internal/activity"
	"github.com/timvw/iterm-relay/internal/monitor"
	telem "github.com/timvw/iterm-relay/internal/otel"
)

var (
	flagMonitorTheme  string
	flagMonitorSocket string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI showing every terminal and what the assistant did to it",
	Long: `Launch an interactive terminal UI that continuously scans all iTerm2
terminals, previews their content, flags recently-changed ones, and
shows the last MCP tool action against each (fed by a running serve
process over a local socket).

Keybindings: Enter/f focus, t type text, o open, x close, r rescan,
q quit.

Configuration is loaded from .iterm-relay.yaml or environment variables.
See the README for all configuration options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd)
	},
}

func init() {
	monitorCmd.Flags().StringVar(&flagMonitorTheme, "theme", "dark", "color theme: dark, light")
	monitorCmd.Flags().StringVar(&flagMonitorSocket, "socket", "", "unix datagram socket path for the activity feed")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.ConfigFile != "" {
		fmt.Fprintf(os.Stderr, "config: loaded %s\n", cfg.ConfigFile)
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}

	// Wire build version into OTEL service metadata.
	telem.Version = Version

	// Initialize OTEL (no-op if no endpoint configured).
	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
	}
	if tel != nil {
		defer tel.Shutdown(ctx)
	}

	// Listen for tool events from a running serve process. The monitor
	// works without one; the activity column just stays empty.
	socketPath := flagMonitorSocket
	if socketPath == "" {
		socketPath = cfg.ActivitySocket
	}
	if socketPath == "" {
		socketPath = activity.DefaultSocketPath()
	}
	ttl := cfg.ActivityTTLDuration
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	store := activity.NewStore(ttl)
	collector := activity.NewCollector(store, socketPath)
	if err := collector.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: activity collector: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "activity collector: listening on %s\n", collector.SocketPath())
	}

	scanner := &monitor.Scanner{
		App:          app,
		CaptureLines: cfg.CaptureLines,
		Parallel:     cfg.Parallel,
		Exclude:      cfg.ExcludeTerminals,
		Tracker:      monitor.NewChangeTracker(),
	}

	tui := &monitor.TUI{
		Scanner:         scanner,
		App:             app,
		Activity:        store,
		RefreshInterval: cfg.RefreshDuration,
		ThemeName:       flagMonitorTheme,
	}

	return tui.Run(ctx)
}
