// Package server exposes the terminal operations as MCP tools over stdio.
//
// Every handler converts its failures — bad identifier, vanished session,
// osascript trouble, missing arguments — into a plain-text result. A tool
// call can disappoint the caller, but it can never take the server down;
// the only fatal path is losing the stdio transport itself.
package server

import (
	"context"
	"log/slog"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/timvw/iterm-relay/internal/activity"
	"github.com/timvw/iterm-relay/internal/automation"
	"github.com/timvw/iterm-relay/internal/iterm"
	"github.com/timvw/iterm-relay/internal/otel"
)

const (
	serverName = "iterm-relay"
)

// Options configures a Server. Runner is required; everything else is
// optional and nil-safe.
type Options struct {
	// Runner executes synthesized AppleScript.
	Runner automation.Runner
	// Logger receives server-side diagnostics. Stdout belongs to the MCP
	// transport, so this must write elsewhere. Nil means slog.Default.
	Logger *slog.Logger
	// Metrics counts tool invocations and terminal lifecycle events.
	Metrics *otel.Metrics
	// Reporter feeds the activity socket for a running monitor.
	Reporter *activity.Reporter
	// Version is reported to MCP clients during initialization.
	Version string
}

// Server is the MCP server for iTerm2 terminal control.
type Server struct {
	mcp      *mcpsdk.Server
	app      *iterm.App
	logger   *slog.Logger
	metrics  *otel.Metrics
	reporter *activity.Reporter
}

// New builds a Server with all seven tools registered.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		app:      iterm.New(opts.Runner),
		logger:   logger,
		metrics:  opts.Metrics,
		reporter: opts.Reporter,
	}

	s.mcp = mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    serverName,
		Version: version,
	}, nil)
	s.registerTools()

	return s
}

// Run serves MCP over stdio until ctx is canceled or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name: "open-terminal",
		Description: "Open a new iTerm2 terminal window and return its identifier. " +
			"Keep the identifier: it is the only handle to the terminal and is required by every other tool.",
	}, s.handleOpenTerminal)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name: "execute-command",
		Description: "Run a shell command in a terminal. The command is typed into the terminal followed by Enter " +
			"and is not waited on; use read-output to see its result.",
	}, s.handleExecuteCommand)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name: "read-output",
		Description: "Read the visible contents of a terminal. " +
			"Pass lines to get only the last N lines of the buffer.",
	}, s.handleReadOutput)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "send-keys",
		Description: sendKeysDescription,
	}, s.handleSendKeys)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "clear-terminal",
		Description: "Clear a terminal's screen by running the clear command in it.",
	}, s.handleClearTerminal)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "close-terminal",
		Description: "Close a terminal window. Closing a terminal that is already gone is not an error.",
	}, s.handleCloseTerminal)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "list-terminals",
		Description: "List the identifiers of all open iTerm2 terminals, one per line, with window and tab counts.",
	}, s.handleListTerminals)
}

const sendKeysDescription = "Send keystrokes to a terminal for interacting with full-screen programs. " +
	"Either keys (a special key name such as enter, tab, escape, up, down, ctrl-c, f1, shift-tab) " +
	"or text (typed literally, followed by Enter) must be given. " +
	"When both are given, text wins and keys is ignored."

// report emits one activity event for a completed tool call. Best-effort;
// a nil reporter drops everything. Messages are capped so a full buffer
// read never becomes an oversized datagram.
func (s *Server) report(tool, terminal, outcome, message string) {
	const maxMessage = 120
	if len(message) > maxMessage {
		message = message[:maxMessage-3] + "..."
	}
	s.reporter.Report(activity.Event{
		Tool:     tool,
		Terminal: terminal,
		Outcome:  outcome,
		TS:       time.Now(),
		Message:  message,
	})
}
