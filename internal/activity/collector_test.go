package activity

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"
)

func waitForEvent(t *testing.T, s *Store, terminal string) Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e, ok := s.Latest(terminal); ok {
			return e
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("event for %s never arrived", terminal)
	return Event{}
}

func TestCollectorReceivesFromReporter(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "activity.sock")
	store := NewStore(time.Minute)
	c := NewCollector(store, sock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	r := NewReporter(sock)
	defer r.Close()
	r.Report(Event{
		Tool:     "execute-command",
		Terminal: "term-100-1",
		Outcome:  OutcomeSuccess,
		TS:       time.Now(),
		Message:  "echo hi",
	})

	got := waitForEvent(t, store, "term-100-1")
	if got.Message != "echo hi" {
		t.Errorf("Message = %q, want %q", got.Message, "echo hi")
	}
	if got.Outcome != OutcomeSuccess {
		t.Errorf("Outcome = %q, want %q", got.Outcome, OutcomeSuccess)
	}
}

func TestCollectorDropsMalformedDatagrams(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "activity.sock")
	store := NewStore(time.Minute)
	c := NewCollector(store, sock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	addr, err := net.ResolveUnixAddr("unixgram", sock)
	if err != nil {
		t.Fatal(err)
	}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Garbage, then an event that fails validation, then a good one.
	if _, err := conn.Write([]byte("not json")); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Write([]byte(`{"tool":"","outcome":"success"}`)); err != nil {
		t.Fatal(err)
	}

	r := NewReporter(sock)
	defer r.Close()
	r.Report(Event{Tool: "send-keys", Terminal: "term-7-1", Outcome: OutcomeSuccess, TS: time.Now()})

	waitForEvent(t, store, "term-7-1")
	if snap := store.Snapshot(time.Now()); len(snap) != 1 {
		t.Errorf("snapshot has %d events, want only the valid one", len(snap))
	}
}

func TestCollectorStartValidation(t *testing.T) {
	if err := NewCollector(nil, "x").Start(context.Background()); err == nil {
		t.Error("Start with nil store succeeded, want error")
	}
	if err := NewCollector(NewStore(0), "").Start(context.Background()); err == nil {
		t.Error("Start with empty path succeeded, want error")
	}
}

func TestReporterWithoutCollector(t *testing.T) {
	// Reporting into the void must not error or block.
	r := NewReporter(filepath.Join(t.TempDir(), "nobody.sock"))
	defer r.Close()
	r.Report(Event{Tool: "read-output", Terminal: "term-1-1", Outcome: OutcomeSuccess, TS: time.Now()})

	var nilReporter *Reporter
	nilReporter.Report(Event{Tool: "read-output", Outcome: OutcomeSuccess, TS: time.Now()})
	nilReporter.Close()
}
