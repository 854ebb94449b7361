package monitor

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// ChangeTracker remembers a content hash per terminal so the monitor can
// flag terminals whose screen changed since the previous scan. A terminal
// that keeps producing output is busy; one whose hash is stable has settled
// into a prompt or a blocked state.
type ChangeTracker struct {
	mu      sync.Mutex
	entries map[string]*trackerEntry
}

type trackerEntry struct {
	contentHash string
	changedAt   time.Time
	seen        bool
}

func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{entries: make(map[string]*trackerEntry)}
}

// Observe records the current content for a terminal and reports whether it
// differs from the previous observation. The first observation of a
// terminal counts as changed.
func (c *ChangeTracker) Observe(terminal, content string) bool {
	hash := hashContent(content)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[terminal]
	if !ok {
		c.entries[terminal] = &trackerEntry{contentHash: hash, changedAt: time.Now(), seen: true}
		return true
	}
	entry.seen = true
	if entry.contentHash == hash {
		return false
	}
	entry.contentHash = hash
	entry.changedAt = time.Now()
	return true
}

// LastChange returns when the terminal's content last changed.
func (c *ChangeTracker) LastChange(terminal string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[terminal]
	if !ok {
		return time.Time{}, false
	}
	return entry.changedAt, true
}

// Forget drops a terminal's entry, so its next observation counts as
// changed again. Used after sending input to a terminal.
func (c *ChangeTracker) Forget(terminal string) {
	c.mu.Lock()
	delete(c.entries, terminal)
	c.mu.Unlock()
}

// Sweep removes entries for terminals that were not observed since the
// previous Sweep. Called once per scan so closed terminals do not
// accumulate.
func (c *ChangeTracker) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for terminal, entry := range c.entries {
		if !entry.seen {
			delete(c.entries, terminal)
			continue
		}
		entry.seen = false
	}
}

func hashContent(content string) string {
	h := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", h)
}
