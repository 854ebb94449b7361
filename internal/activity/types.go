// Package activity is the live feed of tool operations. The serve process
// reports one event per tool call over a local datagram socket; the
// monitor collects them to show what the assistant last did to each
// terminal. Delivery is best-effort — no monitor listening means events
// are simply dropped.
package activity

import (
	"fmt"
	"strings"
	"time"

	"github.com/timvw/iterm-relay/internal/session"
)

const (
	OutcomeSuccess         = "success"
	OutcomeInvalidFormat   = "invalid_format"
	OutcomeSessionNotFound = "session_not_found"
	OutcomeAutomationError = "automation_error"
	OutcomeUsageError      = "usage_error"
)

// Event records one tool operation against a terminal.
type Event struct {
	// Tool is the operation name, e.g. "execute-command".
	Tool string `json:"tool"`
	// Terminal is the canonical identifier the operation addressed.
	// Empty for operations without one (open-terminal failures, list-terminals).
	Terminal string `json:"terminal,omitempty"`
	// Outcome is one of the Outcome constants.
	Outcome string `json:"outcome"`
	TS      time.Time `json:"ts"`
	// Message is a short human-readable detail, e.g. the command that ran.
	Message string `json:"message,omitempty"`
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Tool) == "" {
		return fmt.Errorf("tool is required")
	}
	if !isValidOutcome(e.Outcome) {
		return fmt.Errorf("invalid outcome %q", e.Outcome)
	}
	if e.Terminal != "" {
		if _, err := session.Parse(e.Terminal); err != nil {
			return fmt.Errorf("invalid terminal %q", e.Terminal)
		}
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}

// IsFailure reports whether the outcome describes anything other than a
// completed operation.
func IsFailure(outcome string) bool {
	return outcome != OutcomeSuccess
}

func isValidOutcome(outcome string) bool {
	switch outcome {
	case OutcomeSuccess, OutcomeInvalidFormat, OutcomeSessionNotFound,
		OutcomeAutomationError, OutcomeUsageError:
		return true
	default:
		return false
	}
}
