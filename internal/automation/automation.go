// Package automation executes AppleScript through the osascript binary.
//
// Scripts are handed to osascript as a single -e argument, so their text
// never passes through a shell and needs no shell quoting. Callers own
// AppleScript-level escaping of any values interpolated into the script.
package automation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single osascript invocation. AppleScript calls
// into iTerm2 normally return within milliseconds; anything this slow means
// the automation bridge is wedged.
const DefaultTimeout = 30 * time.Second

// ErrFailed reports that osascript could not be started or exited non-zero.
var ErrFailed = errors.New("osascript failed")

// Runner executes a synthesized script and returns its standard output.
type Runner interface {
	Run(ctx context.Context, script string) (string, error)
}

// Osascript runs scripts through the osascript binary. The zero value is
// usable; New fills in the defaults.
type Osascript struct {
	// Bin is the osascript executable, resolved through PATH when relative.
	Bin string
	// Timeout applies per invocation when positive.
	Timeout time.Duration
	// Logger receives warnings for stderr chatter on successful runs.
	// Nil means slog.Default.
	Logger *slog.Logger
}

// New returns an Osascript with the default binary and timeout.
func New() *Osascript {
	return &Osascript{Bin: "osascript", Timeout: DefaultTimeout}
}

// Detect reports whether osascript is available on this host.
func Detect() error {
	if _, err := exec.LookPath("osascript"); err != nil {
		return fmt.Errorf("osascript not found (iTerm2 automation requires macOS): %w", err)
	}
	return nil
}

// Run executes script and returns its stdout with surrounding whitespace
// trimmed. A non-zero exit or a failure to start fails with an error
// wrapping ErrFailed; there are no retries. Stderr output from a run that
// still exited zero is logged as a warning and otherwise ignored, since
// osascript emits AppleScript event chatter there.
func (o *Osascript) Run(ctx context.Context, script string) (string, error) {
	bin := o.Bin
	if bin == "" {
		bin = "osascript"
	}
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, "-e", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %v", ErrFailed, ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", ErrFailed, msg)
		}
		return "", fmt.Errorf("%w: %v", ErrFailed, err)
	}

	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		o.logger().Warn("osascript wrote to stderr on success", "stderr", msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (o *Osascript) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
