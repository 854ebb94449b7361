package diagnose

import (
	"context"
	"time"

	"github.com/timvw/iterm-relay/internal/model"
	"github.com/timvw/iterm-relay/internal/otel"
)

// Diagnoser turns a terminal capture into a Diagnosis, trying the
// deterministic classifier first and falling back to the LLM evaluator.
type Diagnoser struct {
	// Evaluator handles content the classifier cannot. Nil disables the
	// LLM tier; ambiguous content then comes back as StateUnknown.
	Evaluator Evaluator
	// Metrics is optional.
	Metrics *otel.Metrics
	// Verbose attaches the raw capture to the Diagnosis.
	Verbose bool
}

// Diagnose analyzes content captured from term.
func (d *Diagnoser) Diagnose(ctx context.Context, term model.Terminal, content string) (*model.Diagnosis, error) {
	start := time.Now()

	if llm, ok := Classify(content); ok {
		d.Metrics.RecordDiagnosis(ctx, "classifier")
		return d.finish(term, llm, "", "", content, start), nil
	}

	if d.Evaluator == nil {
		d.Metrics.RecordDiagnosis(ctx, "classifier")
		return d.finish(term, &model.LLMDiagnosis{
			State:  string(model.StateUnknown),
			Reason: "screen content is ambiguous and no LLM is configured",
		}, "", "", content, start), nil
	}

	llm, err := d.Evaluator.Evaluate(ctx, model.BuildCaptureHeader(term)+content)
	if err != nil {
		d.Metrics.RecordDiagnosis(ctx, "error")
		return nil, err
	}
	d.Metrics.RecordDiagnosis(ctx, "llm")
	d.Metrics.RecordTokens(ctx, d.Evaluator.Provider(), d.Evaluator.Model(),
		llm.Usage.InputTokens, llm.Usage.OutputTokens,
		llm.Usage.CacheReadInputTokens, llm.Usage.CacheCreationInputTokens)
	return d.finish(term, llm, d.Evaluator.Provider(), d.Evaluator.Model(), content, start), nil
}

func (d *Diagnoser) finish(term model.Terminal, llm *model.LLMDiagnosis, provider, modelName, content string, start time.Time) *model.Diagnosis {
	diag := &model.Diagnosis{
		ID:          term.ID,
		WindowID:    term.WindowID,
		Tab:         term.Tab,
		State:       model.ParseState(llm.State),
		Reason:      llm.Reason,
		Prompt:      llm.Prompt,
		Reasoning:   llm.Reasoning,
		Actions:     llm.Actions,
		Recommended: llm.Recommended,
		Usage:       llm.Usage,
		Model:       modelName,
		Provider:    provider,
		DiagnosedAt: time.Now(),
		DurationMs:  time.Since(start).Milliseconds(),
	}
	if d.Verbose {
		diag.Content = content
	}
	return diag
}
