package automation

import (
	"context"

	"github.com/timvw/iterm-relay/internal/otel"
)

// Metered wraps a Runner and counts every execution by outcome. The
// Metrics field is nil-safe, so a Metered with no telemetry configured
// behaves like the bare Runner.
type Metered struct {
	Runner  Runner
	Metrics *otel.Metrics
}

func (m Metered) Run(ctx context.Context, script string) (string, error) {
	out, err := m.Runner.Run(ctx, script)
	m.Metrics.RecordAutomationRun(ctx, err == nil)
	return out, err
}
