// Package monitor is the interactive TUI that watches every iTerm2
// terminal the relay can address: it polls the enumeration, tails each
// terminal's buffer, and overlays the assistant's recent tool activity.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/timvw/iterm-relay/internal/config"
	"github.com/timvw/iterm-relay/internal/iterm"
	"github.com/timvw/iterm-relay/internal/model"
	"github.com/timvw/iterm-relay/internal/session"
)

var tracer = otel.Tracer("iterm-relay/monitor")

// Scanner lists terminals and captures a tail of each one's buffer with
// bounded parallelism. Each capture is an independent osascript call, so
// fan-out is what keeps a scan over many windows tolerable.
type Scanner struct {
	App *iterm.App
	// CaptureLines is the tail length per terminal. <= 0 captures the
	// full visible buffer.
	CaptureLines int
	// Parallel bounds concurrent captures. < 1 means serial.
	Parallel int
	// Exclude lists identifier patterns to skip (exact, or prefix with a
	// trailing "*").
	Exclude []string
	// Tracker flags terminals whose content changed; nil disables.
	Tracker *ChangeTracker
}

// Status is one terminal's scan result.
type Status struct {
	Terminal model.Terminal
	// Content is the captured buffer tail. Empty when Err is set.
	Content string
	// Changed reports whether the content differs from the previous scan.
	Changed bool
	// Err is the capture failure, if any. A terminal can vanish between
	// the enumeration and its capture.
	Err error
}

// ScanResult is a complete pass over all terminals.
type ScanResult struct {
	Statuses []Status
	Changed  int
	ScanTime time.Time
}

// Scan enumerates terminals and captures each one.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	ctx, span := tracer.Start(ctx, "scan")
	defer span.End()

	terms, err := s.App.Terminals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminals: %w", err)
	}

	filtered := make([]model.Terminal, 0, len(terms))
	for _, term := range terms {
		if config.MatchesExcludeList(term.ID, s.Exclude) {
			continue
		}
		filtered = append(filtered, term)
	}
	terms = filtered

	result := &ScanResult{
		Statuses: make([]Status, len(terms)),
		ScanTime: time.Now(),
	}
	if len(terms) == 0 {
		if s.Tracker != nil {
			s.Tracker.Sweep()
		}
		return result, nil
	}

	parallel := s.Parallel
	if parallel < 1 {
		parallel = 1
	}
	if parallel > len(terms) {
		parallel = len(terms)
	}

	changed := int64(0)
	var wg sync.WaitGroup
	sem := make(chan struct{}, parallel)

	for i, term := range terms {
		wg.Add(1)
		go func(idx int, term model.Terminal) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			status := s.capture(ctx, term)
			if status.Changed {
				atomic.AddInt64(&changed, 1)
			}
			result.Statuses[idx] = status
		}(i, term)
	}

	wg.Wait()
	if s.Tracker != nil {
		s.Tracker.Sweep()
	}
	result.Changed = int(changed)

	span.SetAttributes(
		attribute.Int("terminals.total", len(terms)),
		attribute.Int("terminals.changed", result.Changed),
	)
	return result, nil
}

func (s *Scanner) capture(ctx context.Context, term model.Terminal) Status {
	id := session.ID{WindowID: term.WindowID, Tab: term.Tab}

	content, err := s.App.ReadOutput(ctx, id, s.CaptureLines)
	if err != nil {
		// The terminal may have closed mid-scan; drop its tracker entry
		// so a reopened one with the same id starts fresh.
		if s.Tracker != nil {
			s.Tracker.Forget(term.ID)
		}
		return Status{Terminal: term, Err: err}
	}

	status := Status{Terminal: term, Content: content}
	if s.Tracker != nil {
		status.Changed = s.Tracker.Observe(term.ID, content)
	}
	return status
}
