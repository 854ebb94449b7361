// Package iterm drives iTerm2 through synthesized AppleScript.
//
// Each operation is a pure template function from a decoded identifier and
// escaped arguments to script text, executed through an injected
// automation.Runner. The package keeps no session registry; addressing is
// re-derived from the identifier on every call, which is what lets a fresh
// server instance operate on tabs opened by a previous one.
package iterm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/timvw/iterm-relay/internal/automation"
	"github.com/timvw/iterm-relay/internal/model"
	"github.com/timvw/iterm-relay/internal/session"
)

// ErrSessionNotFound reports that the addressed window or tab no longer
// exists. The user may close windows at any time, so every tab-addressed
// call can fail this way regardless of how recently the identifier worked.
var ErrSessionNotFound = errors.New("terminal session not found")

// App is the iTerm2 automation facade.
type App struct {
	runner automation.Runner
}

// New returns an App that executes its scripts through r.
func New(r automation.Runner) *App {
	return &App{runner: r}
}

// checkSentinels maps the shared search pattern's failure markers onto
// ErrSessionNotFound. Every tab-addressed operation routes its script
// output through here before treating it as a payload.
func checkSentinels(out string) error {
	switch out {
	case sentinelWindowNotFound:
		return fmt.Errorf("%w: window is gone", ErrSessionNotFound)
	case sentinelTabNotFound:
		return fmt.Errorf("%w: tab is gone", ErrSessionNotFound)
	}
	return nil
}

// Open creates a new iTerm2 window with the default profile, restores
// focus to the previously active application, and returns the identifier
// of the window's first tab. The caller must retain the identifier; the
// server keeps no record of it.
func (a *App) Open(ctx context.Context) (session.ID, error) {
	out, err := a.runner.Run(ctx, openScript())
	if err != nil {
		return session.ID{}, err
	}
	windowID, sessionUID, ok := strings.Cut(out, ",")
	if !ok || windowID == "" || sessionUID == "" {
		return session.ID{}, fmt.Errorf("unexpected open result %q", out)
	}
	return session.ID{WindowID: windowID, Tab: 1}, nil
}

// WriteText types text into the addressed tab. newline controls whether
// the terminal also receives the implicit trailing carriage return.
func (a *App) WriteText(ctx context.Context, id session.ID, text string, newline bool) error {
	out, err := a.runner.Run(ctx, writeTextScript(id, text, newline))
	if err != nil {
		return err
	}
	return checkSentinels(out)
}

// SendControl delivers a single ASCII control code (1 through 26 for
// ctrl-a through ctrl-z) to the addressed tab.
func (a *App) SendControl(ctx context.Context, id session.ID, code int) error {
	out, err := a.runner.Run(ctx, sendControlScript(id, code))
	if err != nil {
		return err
	}
	return checkSentinels(out)
}

// ReadOutput returns the addressed tab's visible buffer. lines > 0 caps
// the result at the last lines paragraphs; shorter buffers come back
// unmodified. The cap is applied again here so runners that return the
// full buffer still honor it.
func (a *App) ReadOutput(ctx context.Context, id session.ID, lines int) (string, error) {
	out, err := a.runner.Run(ctx, readScript(id, lines))
	if err != nil {
		return "", err
	}
	if err := checkSentinels(out); err != nil {
		return "", err
	}
	return lastParagraphs(out, lines), nil
}

// Close closes the addressed window. found reports whether it still
// existed; closing an already-gone window is not an error, since the
// caller's intent is satisfied either way.
func (a *App) Close(ctx context.Context, id session.ID) (bool, error) {
	out, err := a.runner.Run(ctx, closeScript(id))
	if err != nil {
		return false, err
	}
	switch out {
	case "closed":
		return true, nil
	case sentinelWindowNotFound:
		return false, nil
	}
	return false, fmt.Errorf("unexpected close result %q", out)
}

// List returns one identifier per open tab plus aggregate counts, verbatim
// as the enumeration script produced it.
func (a *App) List(ctx context.Context) (string, error) {
	return a.runner.Run(ctx, listScript())
}

// Terminals runs the enumeration and parses it into structured records,
// one per tab.
func (a *App) Terminals(ctx context.Context) ([]model.Terminal, error) {
	out, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	return parseTerminals(out), nil
}

// parseTerminals keeps the identifier lines of the enumeration and drops
// the trailing counts line along with anything else that does not parse.
func parseTerminals(out string) []model.Terminal {
	var terms []model.Terminal
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		id, err := session.Parse(line)
		if err != nil {
			continue
		}
		terms = append(terms, model.Terminal{ID: line, WindowID: id.WindowID, Tab: id.Tab})
	}
	return terms
}

// Focus raises the addressed tab's window and makes the tab current.
func (a *App) Focus(ctx context.Context, id session.ID) error {
	out, err := a.runner.Run(ctx, focusScript(id))
	if err != nil {
		return err
	}
	return checkSentinels(out)
}

// lastParagraphs keeps the final n newline-separated paragraphs of s,
// matching the slice rule the read script applies.
func lastParagraphs(s string, n int) string {
	if n <= 0 {
		return s
	}
	parts := strings.Split(s, "\n")
	if len(parts) <= n {
		return s
	}
	return strings.Join(parts[len(parts)-n:], "\n")
}
