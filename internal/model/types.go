// Package model holds the plain data types shared across packages.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Terminal identifies one iTerm2 tab visible to the relay.
type Terminal struct {
	// ID is the canonical identifier (e.g., "term-231-1").
	ID string `json:"id"`
	// WindowID is the iTerm2 window id as text.
	WindowID string `json:"window_id"`
	// Tab is the 1-based tab position within the window.
	Tab int `json:"tab"`
	// Name is the session name iTerm2 displays, when known.
	Name string `json:"name,omitempty"`
}

// State classifies what a terminal appears to be doing.
type State string

const (
	// StateBusy means the screen is still changing; a command is running.
	StateBusy State = "busy"
	// StateIdle means a shell prompt is showing and nothing is running.
	StateIdle State = "idle"
	// StateWaiting means a program is asking for input.
	StateWaiting State = "waiting"
	// StateUnknown means the capture was inconclusive.
	StateUnknown State = "unknown"
)

// ParseState normalizes a state string, e.g. from an LLM response.
// Unrecognized values come back as StateUnknown.
func ParseState(s string) State {
	switch State(strings.ToLower(strings.TrimSpace(s))) {
	case StateBusy:
		return StateBusy
	case StateIdle:
		return StateIdle
	case StateWaiting:
		return StateWaiting
	}
	return StateUnknown
}

// Diagnosis is the result of analyzing a terminal's screen content.
type Diagnosis struct {
	// Terminal identity, echoed from the capture.
	ID       string `json:"id"`
	WindowID string `json:"window_id"`
	Tab      int    `json:"tab"`

	// State is the classified condition of the terminal.
	State State `json:"state"`
	// Reason is a one-line summary of the diagnosis.
	Reason string `json:"reason"`
	// Prompt is a verbatim extract of the question or dialog the terminal
	// is blocked on. Only populated when State is StateWaiting.
	Prompt string `json:"prompt,omitempty"`
	// Reasoning is the detailed step-by-step analysis, when an LLM ran.
	Reasoning string `json:"reasoning,omitempty"`

	// Actions lists possible inputs to move the terminal along, phrased
	// as send-keys arguments. Only populated when State is StateWaiting.
	Actions []Action `json:"actions,omitempty"`
	// Recommended is the 0-based index into Actions for the suggested action.
	Recommended int `json:"recommended"`

	// Usage tracks token consumption when an LLM produced the diagnosis.
	Usage TokenUsage `json:"usage,omitempty"`

	// Content is the raw screen capture. Only populated in verbose mode.
	Content string `json:"content,omitempty"`

	// Model is the LLM model that produced the diagnosis, empty when only
	// the deterministic classifier ran.
	Model string `json:"model,omitempty"`
	// Provider is the LLM provider used (e.g., "anthropic", "openai").
	Provider string `json:"provider,omitempty"`
	// DiagnosedAt is when the analysis ran.
	DiagnosedAt time.Time `json:"diagnosed_at"`
	// DurationMs is the wall-clock time in milliseconds for capture plus analysis.
	DurationMs int64 `json:"duration_ms"`
}

// Action is one possible input to send a terminal, in send-keys terms.
type Action struct {
	// Keys is the send-keys argument: a special-key name (e.g., "enter",
	// "ctrl-c") or literal text.
	Keys string `json:"keys"`
	// Label is a human-readable description of what this action does.
	Label string `json:"label"`
	// Risk is the risk level: "low", "medium", "high".
	Risk string `json:"risk"`
}

// TokenUsage tracks LLM token consumption for a single diagnosis.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`

	// CacheReadInputTokens is the number of input tokens read from the
	// provider's prompt cache (Anthropic cache_read_input_tokens,
	// OpenAI prompt_tokens_details.cached_tokens).
	CacheReadInputTokens int64 `json:"cache_read_input_tokens,omitempty"`
	// CacheCreationInputTokens is the number of input tokens used to
	// create a new cache entry (Anthropic only).
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens,omitempty"`
}

// BuildCaptureHeader returns a metadata header prepended to screen content
// before analysis, giving both the classifier and the LLM addressing
// context. Returns an empty string when there is nothing to add.
func BuildCaptureHeader(term Terminal) string {
	if term.ID == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("[Terminal Info]\n")
	b.WriteString(fmt.Sprintf("Identifier: %s\n", term.ID))
	b.WriteString(fmt.Sprintf("Window: %s\n", term.WindowID))
	b.WriteString(fmt.Sprintf("Tab: %d\n", term.Tab))
	if term.Name != "" {
		b.WriteString(fmt.Sprintf("Name: %s\n", term.Name))
	}
	b.WriteString("\n[Screen Content]\n")
	return b.String()
}

// LLMDiagnosis is the JSON structure returned by the LLM, parsed from the
// response text.
type LLMDiagnosis struct {
	State       string   `json:"state"`
	Reason      string   `json:"reason"`
	Prompt      string   `json:"prompt"`
	Actions     []Action `json:"actions,omitempty"`
	Recommended int      `json:"recommended"`
	Reasoning   string   `json:"reasoning"`

	// Usage is populated by the evaluator, not parsed from the LLM response.
	Usage TokenUsage `json:"-"`
}
