package iterm

import "strings"

// escapeText prepares s for interpolation into a double-quoted AppleScript
// string literal. Backslashes are doubled before quotes are escaped; the
// reverse order would re-escape the backslashes just inserted. The script
// reaches osascript as a plain argv element, so no shell-level escaping is
// layered on top of this.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
