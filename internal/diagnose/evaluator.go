// Package diagnose explains what a terminal is doing from its captured
// screen content.
//
// Two tiers: a deterministic classifier handles the unambiguous shapes
// (shell prompt showing, yes/no dialog, password prompt) without any
// network call, and an LLM evaluator judges everything else. Go code
// constructs the prompt and parses the response; the judgment on unclear
// content belongs to the LLM.
package diagnose

import (
	"context"

	"github.com/timvw/iterm-relay/internal/model"
)

// Evaluator sends screen content to an LLM and returns a diagnosis.
type Evaluator interface {
	// Evaluate sends the screen content to an LLM and returns the diagnosis.
	Evaluate(ctx context.Context, content string) (*model.LLMDiagnosis, error)

	// Provider returns the provider name (e.g., "anthropic", "openai").
	Provider() string

	// Model returns the model name used for evaluation.
	Model() string
}
