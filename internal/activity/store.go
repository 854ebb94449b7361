package activity

import (
	"sort"
	"sync"
	"time"
)

// Store keeps the latest event per terminal, expiring entries older than
// the TTL at snapshot time. Events without a terminal are kept per tool,
// so a failed open-terminal still shows up in the feed.
type Store struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]Event
}

func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, data: make(map[string]Event)}
}

func (s *Store) Upsert(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[storeKey(e)] = e
}

// Latest returns the most recent event for the given terminal identifier.
func (s *Store) Latest(terminal string) (Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[terminal]
	return e, ok
}

func (s *Store) Snapshot(now time.Time) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(now, false)
}

func (s *Store) SnapshotFailures(now time.Time) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(now, true)
}

func (s *Store) snapshotLocked(now time.Time, failuresOnly bool) []Event {
	if s.ttl > 0 {
		for key, e := range s.data {
			if now.Sub(e.TS) > s.ttl {
				delete(s.data, key)
			}
		}
	}
	result := make([]Event, 0, len(s.data))
	for _, e := range s.data {
		if failuresOnly && !IsFailure(e.Outcome) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Terminal == result[j].Terminal {
			return result[i].TS.Before(result[j].TS)
		}
		return result[i].Terminal < result[j].Terminal
	})
	return result
}

func storeKey(e Event) string {
	if e.Terminal != "" {
		return e.Terminal
	}
	return "tool:" + e.Tool
}
