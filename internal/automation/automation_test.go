package automation

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRunTrimsStdout(t *testing.T) {
	// echo prints its arguments ("-e" plus the script) and a trailing
	// newline, which Run must trim away.
	o := &Osascript{Bin: "echo"}
	out, err := o.Run(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if strings.HasSuffix(out, "\n") {
		t.Errorf("output %q not trimmed", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("output %q missing script text", out)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	o := &Osascript{Bin: "false"}
	_, err := o.Run(context.Background(), "ignored")
	if err == nil {
		t.Fatal("Run succeeded, want error")
	}
	if !errors.Is(err, ErrFailed) {
		t.Errorf("error = %v, want ErrFailed", err)
	}
}

func TestRunMissingBinary(t *testing.T) {
	o := &Osascript{Bin: "/nonexistent/osascript"}
	_, err := o.Run(context.Background(), "ignored")
	if err == nil {
		t.Fatal("Run succeeded, want error")
	}
	if !errors.Is(err, ErrFailed) {
		t.Errorf("error = %v, want ErrFailed", err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := &Osascript{Bin: "echo"}
	_, err := o.Run(ctx, "ignored")
	if err == nil {
		t.Fatal("Run succeeded, want error")
	}
	if !errors.Is(err, ErrFailed) {
		t.Errorf("error = %v, want ErrFailed", err)
	}
}

func TestNewDefaults(t *testing.T) {
	o := New()
	if o.Bin != "osascript" {
		t.Errorf("Bin = %q, want osascript", o.Bin)
	}
	if o.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", o.Timeout, DefaultTimeout)
	}
}

type cannedRunner struct {
	out string
	err error
}

func (c cannedRunner) Run(ctx context.Context, script string) (string, error) {
	return c.out, c.err
}

func TestMeteredPassesThrough(t *testing.T) {
	m := Metered{Runner: cannedRunner{out: "hello"}}
	out, err := m.Run(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out != "hello" {
		t.Errorf("out = %q, want hello", out)
	}

	wantErr := errors.New("boom")
	m = Metered{Runner: cannedRunner{err: wantErr}}
	if _, err := m.Run(context.Background(), "ignored"); !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}
