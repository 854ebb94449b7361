// Package session defines the terminal identifier format shared by every
// operation: term-<windowID>-<tabIndex>.
//
// The identifier encodes iTerm2's own addressing (window id plus 1-based tab
// position), so any process holding one can address the tab without
// server-side bookkeeping, and identifiers minted by one server instance
// remain usable by the next. Holding an identifier guarantees nothing about
// the window still existing — the user may close it at any time.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Prefix is the fixed leading segment of every terminal identifier.
const Prefix = "term"

// ErrInvalidFormat reports an identifier that does not match
// term-<windowID>-<tabIndex>.
var ErrInvalidFormat = errors.New("invalid terminal id")

// ID addresses a single iTerm2 tab. WindowID is the window's numeric id
// kept as a string — window ids are host-assigned and need not fit an int.
// Tab is the 1-based tab position inside that window.
type ID struct {
	WindowID string
	Tab      int
}

// Parse validates and decodes a terminal identifier.
// Anything not matching term-<digits>-<digits> with a tab index of at
// least 1 fails with an error wrapping ErrInvalidFormat.
func Parse(s string) (ID, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] != Prefix {
		return ID{}, fmt.Errorf("%w %q: expected %s-<window>-<tab>", ErrInvalidFormat, s, Prefix)
	}
	if !isDigits(parts[1]) {
		return ID{}, fmt.Errorf("%w %q: window id must be numeric", ErrInvalidFormat, s)
	}
	if !isDigits(parts[2]) {
		return ID{}, fmt.Errorf("%w %q: tab index must be numeric", ErrInvalidFormat, s)
	}
	tab, err := strconv.Atoi(parts[2])
	if err != nil {
		return ID{}, fmt.Errorf("%w %q: tab index out of range", ErrInvalidFormat, s)
	}
	if tab < 1 {
		return ID{}, fmt.Errorf("%w %q: tab index must be >= 1", ErrInvalidFormat, s)
	}
	return ID{WindowID: parts[1], Tab: tab}, nil
}

// String renders the canonical textual form, the inverse of Parse.
func (id ID) String() string {
	return fmt.Sprintf("%s-%s-%d", Prefix, id.WindowID, id.Tab)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
