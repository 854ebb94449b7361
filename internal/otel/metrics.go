package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "iterm-relay"

// Metrics holds all OTEL metric instruments for iterm-relay.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// Tool invocations (partitioned by tool + outcome via attributes)
	ToolInvocations metric.Int64Counter

	// Automation runs (partitioned by outcome: ok, error)
	AutomationRuns metric.Int64Counter

	// Terminal lifecycle counters
	TerminalsOpened metric.Int64Counter
	TerminalsClosed metric.Int64Counter

	// Keystroke deliveries (partitioned by kind: key, control, text)
	KeysSent metric.Int64Counter

	// LLM token counters (partitioned by provider + model via attributes)
	InputTokens         metric.Int64Counter
	OutputTokens        metric.Int64Counter
	CacheReadTokens     metric.Int64Counter
	CacheCreationTokens metric.Int64Counter

	// Diagnoses (partitioned by source: classifier, llm, error)
	Diagnoses metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	// --- Tool and automation counters ---

	m.ToolInvocations, err = meter.Int64Counter("tool.invocations",
		metric.WithDescription("Total tool invocations partitioned by tool name and outcome"))
	if err != nil {
		return nil, err
	}

	m.AutomationRuns, err = meter.Int64Counter("automation.runs",
		metric.WithDescription("Total osascript executions partitioned by outcome"))
	if err != nil {
		return nil, err
	}

	// --- Terminal lifecycle counters ---

	m.TerminalsOpened, err = meter.Int64Counter("terminals.opened",
		metric.WithDescription("Number of terminal windows opened through the relay"))
	if err != nil {
		return nil, err
	}

	m.TerminalsClosed, err = meter.Int64Counter("terminals.closed",
		metric.WithDescription("Number of terminal windows closed through the relay"))
	if err != nil {
		return nil, err
	}

	m.KeysSent, err = meter.Int64Counter("keys.sent",
		metric.WithDescription("Keystroke deliveries partitioned by kind (key, control, text)"))
	if err != nil {
		return nil, err
	}

	// --- LLM token counters ---

	m.InputTokens, err = meter.Int64Counter("llm.tokens.input",
		metric.WithDescription("Total LLM input tokens consumed"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	m.OutputTokens, err = meter.Int64Counter("llm.tokens.output",
		metric.WithDescription("Total LLM output tokens consumed"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	m.CacheReadTokens, err = meter.Int64Counter("llm.tokens.cache_read",
		metric.WithDescription("Total input tokens served from provider prompt cache"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	m.CacheCreationTokens, err = meter.Int64Counter("llm.tokens.cache_creation",
		metric.WithDescription("Total input tokens used to create provider prompt cache entries"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	// --- Diagnosis counters ---

	m.Diagnoses, err = meter.Int64Counter("diagnoses.total",
		metric.WithDescription("Total terminal diagnoses partitioned by source (classifier, llm, error)"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordToolInvocation records one tool call with its outcome
// (success, invalid_format, session_not_found, automation_error, usage_error).
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolInvocations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool.name", tool),
		attribute.String("tool.outcome", outcome),
	))
}

// RecordAutomationRun records one osascript execution.
func (m *Metrics) RecordAutomationRun(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.AutomationRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("automation.outcome", outcome),
	))
}

// RecordTerminalOpened records a terminal window opened through the relay.
func (m *Metrics) RecordTerminalOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.TerminalsOpened.Add(ctx, 1)
}

// RecordTerminalClosed records a terminal window closed through the relay.
func (m *Metrics) RecordTerminalClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.TerminalsClosed.Add(ctx, 1)
}

// RecordKeysSent records one keystroke delivery of the given kind.
func (m *Metrics) RecordKeysSent(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.KeysSent.Add(ctx, 1, metric.WithAttributes(
		attribute.String("keys.kind", kind),
	))
}

// RecordTokens records LLM token usage on the metric counters.
func (m *Metrics) RecordTokens(ctx context.Context, provider, model string, input, output, cacheRead, cacheCreation int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
	)
	m.InputTokens.Add(ctx, input, attrs)
	m.OutputTokens.Add(ctx, output, attrs)
	if cacheRead > 0 {
		m.CacheReadTokens.Add(ctx, cacheRead, attrs)
	}
	if cacheCreation > 0 {
		m.CacheCreationTokens.Add(ctx, cacheCreation, attrs)
	}
}

// RecordDiagnosis records a terminal diagnosis with the given source.
func (m *Metrics) RecordDiagnosis(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.Diagnoses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("diagnosis.source", source),
	))
}
