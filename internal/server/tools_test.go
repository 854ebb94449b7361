package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// scriptedRunner returns canned outputs in order and records every script
// it was asked to run. Stands in for osascript so handlers can be driven
// through all three failure modes without a live iTerm2.
type scriptedRunner struct {
	outputs []string
	err     error
	scripts []string
}

func (r *scriptedRunner) Run(ctx context.Context, script string) (string, error) {
	r.scripts = append(r.scripts, script)
	if r.err != nil {
		return "", r.err
	}
	if len(r.outputs) == 0 {
		return "", nil
	}
	out := r.outputs[0]
	r.outputs = r.outputs[1:]
	return out, nil
}

func (r *scriptedRunner) calls() int { return len(r.scripts) }

func (r *scriptedRunner) lastScript() string {
	if len(r.scripts) == 0 {
		return ""
	}
	return r.scripts[len(r.scripts)-1]
}

func newTestServer(r *scriptedRunner) *Server {
	return New(Options{
		Runner: r,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func resultText(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("unexpected result shape: %+v", res)
	}
	tc, ok := res.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("result content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func intPtr(n int) *int { return &n }

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	runner := &scriptedRunner{outputs: []string{
		"100,A6B1C8D2-0000-0000-0000-000000000000", // open
		"ok",                  // execute echo hi
		"$ echo hi\nhi\n$",    // read
		"closed",              // close
		"Window not found",    // execute after close
	}}
	s := newTestServer(runner)

	res, _, err := s.handleOpenTerminal(ctx, nil, openTerminalArgs{})
	if err != nil {
		t.Fatalf("open-terminal returned protocol error: %v", err)
	}
	id := resultText(t, res)
	if id != "term-100-1" {
		t.Fatalf("open-terminal = %q, want %q", id, "term-100-1")
	}

	res, _, _ = s.handleExecuteCommand(ctx, nil, executeCommandArgs{TerminalID: id, Command: "echo hi"})
	if got := resultText(t, res); !strings.Contains(got, "echo hi") {
		t.Errorf("execute-command confirmation %q does not echo the command", got)
	}

	res, _, _ = s.handleReadOutput(ctx, nil, readOutputArgs{TerminalID: id})
	if got := resultText(t, res); !strings.Contains(got, "hi") {
		t.Errorf("read-output %q does not contain command output", got)
	}

	res, _, _ = s.handleCloseTerminal(ctx, nil, terminalArgs{TerminalID: id})
	if got := resultText(t, res); !strings.Contains(got, "closed") {
		t.Errorf("close-terminal confirmation %q does not say closed", got)
	}

	res, _, _ = s.handleExecuteCommand(ctx, nil, executeCommandArgs{TerminalID: id, Command: "ls"})
	if got := resultText(t, res); !strings.Contains(got, "not found") {
		t.Errorf("execute-command on closed terminal = %q, want a not-found message", got)
	}
}

func TestInvalidIdentifierIssuesNoAutomation(t *testing.T) {
	ctx := context.Background()
	bad := []string{"not-an-id", "term-abc-1", "term-1-0", "term-1-2-3", "garbage", ""}

	for _, id := range bad {
		t.Run(fmt.Sprintf("id=%q", id), func(t *testing.T) {
			runner := &scriptedRunner{}
			s := newTestServer(runner)

			res, _, _ := s.handleExecuteCommand(ctx, nil, executeCommandArgs{TerminalID: id, Command: "ls"})
			if got := resultText(t, res); !strings.Contains(got, "Invalid terminal identifier") {
				t.Errorf("result = %q, want invalid-identifier message", got)
			}
			if runner.calls() != 0 {
				t.Errorf("%d automation calls issued for malformed identifier, want 0", runner.calls())
			}
		})
	}
}

func TestSentinelsReportSessionNotFound(t *testing.T) {
	ctx := context.Background()

	handlers := []struct {
		name string
		call func(s *Server) *mcpsdk.CallToolResult
	}{
		{"execute-command", func(s *Server) *mcpsdk.CallToolResult {
			res, _, _ := s.handleExecuteCommand(ctx, nil, executeCommandArgs{TerminalID: "term-5-1", Command: "ls"})
			return res
		}},
		{"read-output", func(s *Server) *mcpsdk.CallToolResult {
			res, _, _ := s.handleReadOutput(ctx, nil, readOutputArgs{TerminalID: "term-5-1"})
			return res
		}},
		{"clear-terminal", func(s *Server) *mcpsdk.CallToolResult {
			res, _, _ := s.handleClearTerminal(ctx, nil, terminalArgs{TerminalID: "term-5-1"})
			return res
		}},
		{"send-keys", func(s *Server) *mcpsdk.CallToolResult {
			res, _, _ := s.handleSendKeys(ctx, nil, sendKeysArgs{TerminalID: "term-5-1", Keys: "enter"})
			return res
		}},
	}

	for _, sentinel := range []string{"Window not found", "Tab not found"} {
		for _, h := range handlers {
			t.Run(h.name+"/"+sentinel, func(t *testing.T) {
				s := newTestServer(&scriptedRunner{outputs: []string{sentinel}})
				got := resultText(t, h.call(s))
				if !strings.Contains(got, "not found") {
					t.Errorf("result = %q, want a not-found message", got)
				}
				if strings.Contains(got, sentinel) {
					// The raw sentinel must not leak through as a payload.
					t.Errorf("result %q leaks the script sentinel", got)
				}
			})
		}
	}
}

func TestReadOutputEmptyBuffer(t *testing.T) {
	s := newTestServer(&scriptedRunner{outputs: []string{""}})
	res, _, _ := s.handleReadOutput(context.Background(), nil, readOutputArgs{TerminalID: "term-1-1"})
	if got := resultText(t, res); got != "No output available" {
		t.Errorf("read-output on empty buffer = %q, want %q", got, "No output available")
	}
}

func TestReadOutputRejectsNonPositiveLines(t *testing.T) {
	for _, lines := range []int{0, -5} {
		t.Run(fmt.Sprintf("lines=%d", lines), func(t *testing.T) {
			runner := &scriptedRunner{}
			s := newTestServer(runner)
			res, _, _ := s.handleReadOutput(context.Background(), nil, readOutputArgs{TerminalID: "term-1-1", Lines: intPtr(lines)})
			if got := resultText(t, res); !strings.Contains(got, "positive") {
				t.Errorf("result = %q, want a positive-lines message", got)
			}
			if runner.calls() != 0 {
				t.Errorf("%d automation calls issued, want 0", runner.calls())
			}
		})
	}
}

func TestReadOutputTruncatesToLastLines(t *testing.T) {
	s := newTestServer(&scriptedRunner{outputs: []string{"one\ntwo\nthree"}})
	res, _, _ := s.handleReadOutput(context.Background(), nil, readOutputArgs{TerminalID: "term-1-1", Lines: intPtr(2)})
	if got := resultText(t, res); got != "two\nthree" {
		t.Errorf("read-output lines=2 = %q, want %q", got, "two\nthree")
	}
}

func TestSendKeysRequiresKeysOrText(t *testing.T) {
	runner := &scriptedRunner{}
	s := newTestServer(runner)
	res, _, _ := s.handleSendKeys(context.Background(), nil, sendKeysArgs{TerminalID: "term-1-1"})
	if got := resultText(t, res); !strings.Contains(got, "No keys or text specified") {
		t.Errorf("result = %q, want a no-keys-or-text message", got)
	}
	if runner.calls() != 0 {
		t.Errorf("%d automation calls issued, want 0", runner.calls())
	}
}

func TestSendKeysTextWinsOverKeys(t *testing.T) {
	runner := &scriptedRunner{outputs: []string{"ok"}}
	s := newTestServer(runner)
	res, _, _ := s.handleSendKeys(context.Background(), nil,
		sendKeysArgs{TerminalID: "term-1-1", Keys: "ctrl-c", Text: "yes"})
	if got := resultText(t, res); !strings.Contains(got, "yes") {
		t.Errorf("confirmation = %q, want the sent text", got)
	}
	script := runner.lastScript()
	if !strings.Contains(script, `write text "yes"`) {
		t.Errorf("script does not write the text:\n%s", script)
	}
	if strings.Contains(script, "ASCII character") {
		t.Errorf("keys branch ran even though text was given:\n%s", script)
	}
	if strings.Contains(script, "without newline") {
		t.Errorf("literal text must keep the implicit newline:\n%s", script)
	}
}

func TestSendKeysControlCombination(t *testing.T) {
	for _, name := range []string{"ctrl-c", "CTRL-C"} {
		t.Run(name, func(t *testing.T) {
			runner := &scriptedRunner{outputs: []string{"ok"}}
			s := newTestServer(runner)
			s.handleSendKeys(context.Background(), nil, sendKeysArgs{TerminalID: "term-1-1", Keys: name})
			if got := runner.lastScript(); !strings.Contains(got, "(ASCII character 3)") {
				t.Errorf("script for %q missing control code 3:\n%s", name, got)
			}
		})
	}
}

func TestSendKeysNamedKeySuppressesNewline(t *testing.T) {
	runner := &scriptedRunner{outputs: []string{"ok"}}
	s := newTestServer(runner)
	s.handleSendKeys(context.Background(), nil, sendKeysArgs{TerminalID: "term-1-1", Keys: "up"})
	script := runner.lastScript()
	if !strings.Contains(script, "without newline") {
		t.Errorf("named key write must suppress the newline:\n%s", script)
	}
}

func TestSendKeysUnknownNameIsLiteralText(t *testing.T) {
	runner := &scriptedRunner{outputs: []string{"ok"}}
	s := newTestServer(runner)
	s.handleSendKeys(context.Background(), nil, sendKeysArgs{TerminalID: "term-1-1", Keys: "hello world"})
	script := runner.lastScript()
	if !strings.Contains(script, `write text "hello world"`) {
		t.Errorf("unknown key name not written as text:\n%s", script)
	}
	if strings.Contains(script, "without newline") {
		t.Errorf("literal text must keep the implicit newline:\n%s", script)
	}
}

func TestCloseTerminalDistinguishesOutcomes(t *testing.T) {
	s := newTestServer(&scriptedRunner{outputs: []string{"closed"}})
	res, _, _ := s.handleCloseTerminal(context.Background(), nil, terminalArgs{TerminalID: "term-9-1"})
	if got := resultText(t, res); !strings.Contains(got, "closed") || strings.Contains(got, "not found") {
		t.Errorf("close of live terminal = %q", got)
	}

	s = newTestServer(&scriptedRunner{outputs: []string{"Window not found"}})
	res, _, _ = s.handleCloseTerminal(context.Background(), nil, terminalArgs{TerminalID: "term-9-1"})
	if got := resultText(t, res); !strings.Contains(got, "was not found") {
		t.Errorf("close of vanished terminal = %q, want a was-not-found message", got)
	}
}

func TestClearTerminalWritesClear(t *testing.T) {
	runner := &scriptedRunner{outputs: []string{"ok"}}
	s := newTestServer(runner)
	res, _, _ := s.handleClearTerminal(context.Background(), nil, terminalArgs{TerminalID: "term-1-1"})
	if got := resultText(t, res); !strings.Contains(got, "Cleared") {
		t.Errorf("confirmation = %q", got)
	}
	if got := runner.lastScript(); !strings.Contains(got, `write text "clear"`) {
		t.Errorf("script does not run clear:\n%s", got)
	}
}

func TestListTerminalsPassesThroughVerbatim(t *testing.T) {
	enumeration := "term-231-1\nterm-231-2\nterm-540-1\n2 window(s), 3 tab(s)"
	s := newTestServer(&scriptedRunner{outputs: []string{enumeration}})
	res, _, _ := s.handleListTerminals(context.Background(), nil, listTerminalsArgs{})
	if got := resultText(t, res); got != enumeration {
		t.Errorf("list-terminals = %q, want the enumeration verbatim", got)
	}
}

func TestListTerminalsDegradesOnAutomationError(t *testing.T) {
	s := newTestServer(&scriptedRunner{err: errors.New("osascript exploded")})
	res, _, _ := s.handleListTerminals(context.Background(), nil, listTerminalsArgs{})
	got := resultText(t, res)
	if !strings.Contains(got, "Could not get terminal status") {
		t.Errorf("list-terminals = %q, want the degraded status message", got)
	}
	if strings.Contains(got, "exploded") {
		t.Errorf("list-terminals %q leaks the interpreter diagnostic", got)
	}
}

func TestAutomationDiagnosticsNotEchoed(t *testing.T) {
	s := newTestServer(&scriptedRunner{err: errors.New("execution error: secret local detail (-1743)")})
	res, _, _ := s.handleExecuteCommand(context.Background(), nil, executeCommandArgs{TerminalID: "term-1-1", Command: "ls"})
	got := resultText(t, res)
	if strings.Contains(got, "secret local detail") {
		t.Errorf("failure text %q echoes the interpreter diagnostic", got)
	}
	if !strings.Contains(got, "failed") {
		t.Errorf("failure text %q does not say the call failed", got)
	}
}

func TestOpenTerminalFailure(t *testing.T) {
	s := newTestServer(&scriptedRunner{err: errors.New("iTerm2 got an error")})
	res, _, _ := s.handleOpenTerminal(context.Background(), nil, openTerminalArgs{})
	if got := resultText(t, res); !strings.Contains(got, "failed") {
		t.Errorf("open-terminal failure = %q", got)
	}
}
