package iterm

import "strings"

// Keystroke is a resolved special-key name. Exactly one field is set:
// Text holds control-sequence bytes written literally into the tab, while
// Control holds an ASCII control code delivered through AppleScript's
// "ASCII character" primitive, since a string literal cannot reliably
// carry every unprintable byte.
type Keystroke struct {
	Text    string
	Control int
}

// keySequences maps canonical key names to the bytes a terminal expects
// for that keypress. The table is fixed at process start and matched
// case-insensitively.
var keySequences = map[string]string{
	"enter":     "\r",
	"return":    "\r",
	"tab":       "\t",
	"shift-tab": "\x1b[Z",
	"escape":    "\x1b",
	"esc":       "\x1b",
	"space":     " ",
	"backspace": "\x7f",
	"delete":    "\x1b[3~",
	"up":        "\x1b[A",
	"down":      "\x1b[B",
	"right":     "\x1b[C",
	"left":      "\x1b[D",
	"home":      "\x1b[H",
	"end":       "\x1b[F",
	"pageup":    "\x1b[5~",
	"pagedown":  "\x1b[6~",
	"f1":        "\x1bOP",
	"f2":        "\x1bOQ",
	"f3":        "\x1bOR",
	"f4":        "\x1bOS",
	"f5":        "\x1b[15~",
	"f6":        "\x1b[17~",
	"f7":        "\x1b[18~",
	"f8":        "\x1b[19~",
	"f9":        "\x1b[20~",
	"f10":       "\x1b[21~",
	"f11":       "\x1b[23~",
	"f12":       "\x1b[24~",
}

// LookupKey resolves name against the key table. ctrl-a through ctrl-z
// resolve to control codes 1 through 26. ok is false for anything else,
// in which case callers treat the input as literal text.
func LookupKey(name string) (Keystroke, bool) {
	k := strings.ToLower(strings.TrimSpace(name))
	if seq, found := keySequences[k]; found {
		return Keystroke{Text: seq}, true
	}
	if rest, found := strings.CutPrefix(k, "ctrl-"); found && len(rest) == 1 {
		if c := rest[0]; c >= 'a' && c <= 'z' {
			return Keystroke{Control: int(c-'a') + 1}, true
		}
	}
	return Keystroke{}, false
}
