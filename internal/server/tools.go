package server

import (
	"context"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/timvw/iterm-relay/internal/activity"
	"github.com/timvw/iterm-relay/internal/iterm"
	"github.com/timvw/iterm-relay/internal/session"
)

var tracer = otel.Tracer("iterm-relay/server")

// Tool argument types. The MCP SDK derives the input schemas from these.

type openTerminalArgs struct{}

type executeCommandArgs struct {
	TerminalID string `json:"terminal_id"`
	Command    string `json:"command"`
}

type readOutputArgs struct {
	TerminalID string `json:"terminal_id"`
	// Lines caps the result at the last N lines. Absent means the full
	// visible buffer.
	Lines *int `json:"lines,omitempty"`
}

type sendKeysArgs struct {
	TerminalID string `json:"terminal_id"`
	Keys       string `json:"keys,omitempty"`
	Text       string `json:"text,omitempty"`
}

type terminalArgs struct {
	TerminalID string `json:"terminal_id"`
}

type listTerminalsArgs struct{}

// text wraps a string as a plain-text tool result. Tool outcomes, including
// failures, are always delivered this way rather than as protocol errors.
func text(s string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: s}},
	}
}

// ok records a successful tool call and returns message as its result.
func (s *Server) ok(ctx context.Context, tool, terminal, message string) *mcpsdk.CallToolResult {
	s.metrics.RecordToolInvocation(ctx, tool, activity.OutcomeSuccess)
	s.report(tool, terminal, activity.OutcomeSuccess, message)
	return text(message)
}

// fail classifies err and returns the caller-facing failure text. Automation
// diagnostics stay in the server log; the remote caller only learns that the
// operation did not succeed, not what the local process printed.
func (s *Server) fail(ctx context.Context, tool, terminal string, err error) *mcpsdk.CallToolResult {
	var outcome, message string
	switch {
	case errors.Is(err, session.ErrInvalidFormat):
		outcome = activity.OutcomeInvalidFormat
		message = fmt.Sprintf("Invalid terminal identifier %q. Expected %s-<window>-<tab>, as returned by open-terminal or list-terminals.",
			terminal, session.Prefix)
		terminal = "" // unparseable, keep it out of the event
	case errors.Is(err, iterm.ErrSessionNotFound):
		outcome = activity.OutcomeSessionNotFound
		message = fmt.Sprintf("Terminal %s not found. The window or tab may have been closed; use list-terminals to see what is open.", terminal)
	default:
		outcome = activity.OutcomeAutomationError
		message = "The iTerm2 automation call failed. Check the iterm-relay server logs for details."
		s.logger.Error("automation failed", "tool", tool, "terminal", terminal, "error", err)
	}
	s.metrics.RecordToolInvocation(ctx, tool, outcome)
	s.report(tool, terminal, outcome, err.Error())
	return text(message)
}

// usage records a caller mistake caught before any script was synthesized.
func (s *Server) usage(ctx context.Context, tool, terminal, message string) *mcpsdk.CallToolResult {
	s.metrics.RecordToolInvocation(ctx, tool, activity.OutcomeUsageError)
	s.report(tool, terminal, activity.OutcomeUsageError, message)
	return text(message)
}

func (s *Server) handleOpenTerminal(ctx context.Context, _ *mcpsdk.CallToolRequest, _ openTerminalArgs) (*mcpsdk.CallToolResult, any, error) {
	ctx, span := tracer.Start(ctx, "open-terminal")
	defer span.End()

	id, err := s.app.Open(ctx)
	if err != nil {
		return s.fail(ctx, "open-terminal", "", err), nil, nil
	}
	s.metrics.RecordTerminalOpened(ctx)
	span.SetAttributes(attribute.String("terminal.id", id.String()))
	return s.ok(ctx, "open-terminal", id.String(), id.String()), nil, nil
}

func (s *Server) handleExecuteCommand(ctx context.Context, _ *mcpsdk.CallToolRequest, args executeCommandArgs) (*mcpsdk.CallToolResult, any, error) {
	ctx, span := tracer.Start(ctx, "execute-command")
	defer span.End()
	span.SetAttributes(attribute.String("terminal.id", args.TerminalID))

	id, err := session.Parse(args.TerminalID)
	if err != nil {
		return s.fail(ctx, "execute-command", args.TerminalID, err), nil, nil
	}
	if err := s.app.WriteText(ctx, id, args.Command, true); err != nil {
		return s.fail(ctx, "execute-command", args.TerminalID, err), nil, nil
	}
	// Echo the command verbatim so the caller's log shows what actually ran.
	return s.ok(ctx, "execute-command", args.TerminalID,
		fmt.Sprintf("Command sent to %s: %s", args.TerminalID, args.Command)), nil, nil
}

func (s *Server) handleReadOutput(ctx context.Context, _ *mcpsdk.CallToolRequest, args readOutputArgs) (*mcpsdk.CallToolResult, any, error) {
	ctx, span := tracer.Start(ctx, "read-output")
	defer span.End()
	span.SetAttributes(attribute.String("terminal.id", args.TerminalID))

	lines := 0
	if args.Lines != nil {
		if *args.Lines <= 0 {
			return s.usage(ctx, "read-output", args.TerminalID,
				fmt.Sprintf("lines must be a positive number, got %d", *args.Lines)), nil, nil
		}
		lines = *args.Lines
	}

	id, err := session.Parse(args.TerminalID)
	if err != nil {
		return s.fail(ctx, "read-output", args.TerminalID, err), nil, nil
	}
	out, err := s.app.ReadOutput(ctx, id, lines)
	if err != nil {
		return s.fail(ctx, "read-output", args.TerminalID, err), nil, nil
	}
	if out == "" {
		out = "No output available"
	}
	return s.ok(ctx, "read-output", args.TerminalID, out), nil, nil
}

func (s *Server) handleSendKeys(ctx context.Context, _ *mcpsdk.CallToolRequest, args sendKeysArgs) (*mcpsdk.CallToolResult, any, error) {
	ctx, span := tracer.Start(ctx, "send-keys")
	defer span.End()
	span.SetAttributes(attribute.String("terminal.id", args.TerminalID))

	if args.Keys == "" && args.Text == "" {
		return s.usage(ctx, "send-keys", args.TerminalID,
			"No keys or text specified. Provide keys (a special key name) or text (typed literally)."), nil, nil
	}

	id, err := session.Parse(args.TerminalID)
	if err != nil {
		return s.fail(ctx, "send-keys", args.TerminalID, err), nil, nil
	}

	// text always wins when both are given.
	if args.Text != "" {
		if err := s.app.WriteText(ctx, id, args.Text, true); err != nil {
			return s.fail(ctx, "send-keys", args.TerminalID, err), nil, nil
		}
		s.metrics.RecordKeysSent(ctx, "text")
		return s.ok(ctx, "send-keys", args.TerminalID,
			fmt.Sprintf("Sent text to %s: %s", args.TerminalID, args.Text)), nil, nil
	}

	key, known := iterm.LookupKey(args.Keys)
	switch {
	case known && key.Control > 0:
		if err := s.app.SendControl(ctx, id, key.Control); err != nil {
			return s.fail(ctx, "send-keys", args.TerminalID, err), nil, nil
		}
		s.metrics.RecordKeysSent(ctx, "control")
	case known:
		// Named keys carry their own control bytes; the implicit trailing
		// newline would be an extra Enter.
		if err := s.app.WriteText(ctx, id, key.Text, false); err != nil {
			return s.fail(ctx, "send-keys", args.TerminalID, err), nil, nil
		}
		s.metrics.RecordKeysSent(ctx, "key")
	default:
		// Not a key name we know: treat it as literal text.
		if err := s.app.WriteText(ctx, id, args.Keys, true); err != nil {
			return s.fail(ctx, "send-keys", args.TerminalID, err), nil, nil
		}
		s.metrics.RecordKeysSent(ctx, "text")
	}
	return s.ok(ctx, "send-keys", args.TerminalID,
		fmt.Sprintf("Sent keys to %s: %s", args.TerminalID, args.Keys)), nil, nil
}

func (s *Server) handleClearTerminal(ctx context.Context, _ *mcpsdk.CallToolRequest, args terminalArgs) (*mcpsdk.CallToolResult, any, error) {
	ctx, span := tracer.Start(ctx, "clear-terminal")
	defer span.End()
	span.SetAttributes(attribute.String("terminal.id", args.TerminalID))

	id, err := session.Parse(args.TerminalID)
	if err != nil {
		return s.fail(ctx, "clear-terminal", args.TerminalID, err), nil, nil
	}
	if err := s.app.WriteText(ctx, id, "clear", true); err != nil {
		return s.fail(ctx, "clear-terminal", args.TerminalID, err), nil, nil
	}
	return s.ok(ctx, "clear-terminal", args.TerminalID,
		fmt.Sprintf("Cleared terminal %s", args.TerminalID)), nil, nil
}

func (s *Server) handleCloseTerminal(ctx context.Context, _ *mcpsdk.CallToolRequest, args terminalArgs) (*mcpsdk.CallToolResult, any, error) {
	ctx, span := tracer.Start(ctx, "close-terminal")
	defer span.End()
	span.SetAttributes(attribute.String("terminal.id", args.TerminalID))

	id, err := session.Parse(args.TerminalID)
	if err != nil {
		return s.fail(ctx, "close-terminal", args.TerminalID, err), nil, nil
	}
	found, err := s.app.Close(ctx, id)
	if err != nil {
		return s.fail(ctx, "close-terminal", args.TerminalID, err), nil, nil
	}
	if !found {
		// The caller wanted the terminal gone and it already is. Soft
		// success, but say which of the two happened.
		return s.ok(ctx, "close-terminal", args.TerminalID,
			fmt.Sprintf("Terminal %s was not found (already closed)", args.TerminalID)), nil, nil
	}
	s.metrics.RecordTerminalClosed(ctx)
	return s.ok(ctx, "close-terminal", args.TerminalID,
		fmt.Sprintf("Terminal %s closed", args.TerminalID)), nil, nil
}

func (s *Server) handleListTerminals(ctx context.Context, _ *mcpsdk.CallToolRequest, _ listTerminalsArgs) (*mcpsdk.CallToolResult, any, error) {
	ctx, span := tracer.Start(ctx, "list-terminals")
	defer span.End()

	out, err := s.app.List(ctx)
	if err != nil {
		// list-terminals never hard-fails: degrade to a fixed message the
		// caller can retry on.
		s.logger.Error("automation failed", "tool", "list-terminals", "error", err)
		s.metrics.RecordToolInvocation(ctx, "list-terminals", activity.OutcomeAutomationError)
		s.report("list-terminals", "", activity.OutcomeAutomationError, err.Error())
		return text("Could not get terminal status. Please try again."), nil, nil
	}
	return s.ok(ctx, "list-terminals", "", out), nil, nil
}
