package activity

import (
	"testing"
	"time"
)

func TestStoreLatestWins(t *testing.T) {
	s := NewStore(0)
	now := time.Now()
	s.Upsert(Event{Tool: "execute-command", Terminal: "term-1-1", Outcome: OutcomeSuccess, TS: now, Message: "echo one"})
	s.Upsert(Event{Tool: "execute-command", Terminal: "term-1-1", Outcome: OutcomeSuccess, TS: now.Add(time.Second), Message: "echo two"})

	snap := s.Snapshot(now.Add(2 * time.Second))
	if len(snap) != 1 {
		t.Fatalf("snapshot has %d events, want 1", len(snap))
	}
	if snap[0].Message != "echo two" {
		t.Errorf("kept message %q, want %q", snap[0].Message, "echo two")
	}
}

func TestStoreTTLExpiry(t *testing.T) {
	s := NewStore(time.Minute)
	now := time.Now()
	s.Upsert(Event{Tool: "send-keys", Terminal: "term-1-1", Outcome: OutcomeSuccess, TS: now.Add(-2 * time.Minute)})
	s.Upsert(Event{Tool: "send-keys", Terminal: "term-2-1", Outcome: OutcomeSuccess, TS: now.Add(-30 * time.Second)})

	snap := s.Snapshot(now)
	if len(snap) != 1 {
		t.Fatalf("snapshot has %d events, want 1", len(snap))
	}
	if snap[0].Terminal != "term-2-1" {
		t.Errorf("kept %q, want term-2-1", snap[0].Terminal)
	}
}

func TestStoreSnapshotSorted(t *testing.T) {
	s := NewStore(0)
	now := time.Now()
	for _, id := range []string{"term-2-1", "term-1-2", "term-1-1"} {
		s.Upsert(Event{Tool: "read-output", Terminal: id, Outcome: OutcomeSuccess, TS: now})
	}

	snap := s.Snapshot(now)
	want := []string{"term-1-1", "term-1-2", "term-2-1"}
	if len(snap) != len(want) {
		t.Fatalf("snapshot has %d events, want %d", len(snap), len(want))
	}
	for i, id := range want {
		if snap[i].Terminal != id {
			t.Errorf("snapshot[%d].Terminal = %q, want %q", i, snap[i].Terminal, id)
		}
	}
}

func TestStoreSnapshotFailures(t *testing.T) {
	s := NewStore(0)
	now := time.Now()
	s.Upsert(Event{Tool: "execute-command", Terminal: "term-1-1", Outcome: OutcomeSuccess, TS: now})
	s.Upsert(Event{Tool: "execute-command", Terminal: "term-2-1", Outcome: OutcomeSessionNotFound, TS: now})

	snap := s.SnapshotFailures(now)
	if len(snap) != 1 {
		t.Fatalf("failures snapshot has %d events, want 1", len(snap))
	}
	if snap[0].Terminal != "term-2-1" {
		t.Errorf("failure terminal = %q, want term-2-1", snap[0].Terminal)
	}
}

func TestStoreLatest(t *testing.T) {
	s := NewStore(0)
	now := time.Now()
	s.Upsert(Event{Tool: "clear-terminal", Terminal: "term-1-1", Outcome: OutcomeSuccess, TS: now})

	if e, ok := s.Latest("term-1-1"); !ok || e.Tool != "clear-terminal" {
		t.Errorf("Latest(term-1-1) = %+v, %v", e, ok)
	}
	if _, ok := s.Latest("term-9-9"); ok {
		t.Error("Latest(term-9-9) found an event, want none")
	}
}

func TestStoreKeysTerminallessEventsByTool(t *testing.T) {
	s := NewStore(0)
	now := time.Now()
	s.Upsert(Event{Tool: "open-terminal", Outcome: OutcomeAutomationError, TS: now})
	s.Upsert(Event{Tool: "list-terminals", Outcome: OutcomeAutomationError, TS: now})
	s.Upsert(Event{Tool: "list-terminals", Outcome: OutcomeSuccess, TS: now.Add(time.Second)})

	snap := s.Snapshot(now.Add(2 * time.Second))
	if len(snap) != 2 {
		t.Fatalf("snapshot has %d events, want 2", len(snap))
	}
}
