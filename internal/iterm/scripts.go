package iterm

import (
	"fmt"

	"github.com/timvw/iterm-relay/internal/session"
)

// Sentinel strings the synthesized scripts return when the shared search
// pattern cannot resolve the addressed window or tab. The executor trims
// output, so comparison against these exact values is reliable.
const (
	sentinelWindowNotFound = "Window not found"
	sentinelTabNotFound    = "Tab not found"
)

// findTabScript wraps body in the search every tab-addressed operation
// shares: match the window by id, verify the tab index is in range, then
// run body with targetWindow and targetTab bound. body must produce the
// script's return value on success. id.WindowID is digits-only after
// session.Parse, so direct interpolation cannot break out of the script.
func findTabScript(id session.ID, body string) string {
	return fmt.Sprintf(`tell application "iTerm2"
	set targetWindow to missing value
	repeat with w in windows
		if (id of w as text) is "%s" then
			set targetWindow to w
			exit repeat
		end if
	end repeat
	if targetWindow is missing value then
		return "%s"
	end if
	if (count of tabs of targetWindow) < %d then
		return "%s"
	end if
	set targetTab to tab %d of targetWindow
%s
end tell`, id.WindowID, sentinelWindowNotFound, id.Tab, sentinelTabNotFound, id.Tab, body)
}

// openScript creates a window with the default profile and reports
// "<windowId>,<sessionId>". It captures the frontmost application first
// and restores it afterwards, so opening a terminal does not steal focus
// from the caller's editor. Electron-based editors all report the process
// name "Electron" and must be re-fronted through System Events; activating
// them by that name as an application would raise iTerm2 instead.
func openScript() string {
	return `tell application "System Events"
	set previousApp to name of first application process whose frontmost is true
end tell
tell application "iTerm2"
	set newWindow to (create window with default profile)
	set windowId to id of newWindow as text
	set sessionId to unique id of current session of current tab of newWindow
end tell
if previousApp is "Electron" then
	tell application "System Events" to set frontmost of first application process whose name is "Electron" to true
else
	tell application previousApp to activate
end if
return windowId & "," & sessionId`
}

// writeTextScript types text into the addressed tab. With newline set the
// write-text primitive appends its implicit carriage return, as if the
// user pressed enter; without it the bytes arrive bare, which is what
// special-key sequences need.
func writeTextScript(id session.ID, text string, newline bool) string {
	suffix := ""
	if !newline {
		suffix = " without newline"
	}
	body := fmt.Sprintf(`	tell current session of targetTab
		write text "%s"%s
	end tell
	return "ok"`, escapeText(text), suffix)
	return findTabScript(id, body)
}

// sendControlScript delivers a single ASCII control code to the tab.
func sendControlScript(id session.ID, code int) string {
	body := fmt.Sprintf(`	tell current session of targetTab
		write text (ASCII character %d) without newline
	end tell
	return "ok"`, code)
	return findTabScript(id, body)
}

// readScript returns the tab's visible buffer. lines > 0 truncates to the
// last lines paragraphs when the buffer holds more than that; a buffer of
// lines paragraphs or fewer comes back unmodified.
func readScript(id session.ID, lines int) string {
	body := `	tell current session of targetTab
		set bufferText to contents
	end tell
	return bufferText`
	if lines > 0 {
		body = fmt.Sprintf(`	tell current session of targetTab
		set bufferText to contents
	end tell
	set paragraphList to paragraphs of bufferText
	if (count of paragraphList) > %d then
		set paragraphList to items -%d thru -1 of paragraphList
	end if
	set AppleScript's text item delimiters to linefeed
	set bufferText to paragraphList as text
	set AppleScript's text item delimiters to ""
	return bufferText`, lines, lines)
	}
	return findTabScript(id, body)
}

// closeScript closes the addressed window. The tab index plays no part:
// closing is a window-level action. Reports "closed" or the window
// sentinel, never an error, so a vanished window stays a soft outcome.
func closeScript(id session.ID) string {
	return fmt.Sprintf(`tell application "iTerm2"
	repeat with w in windows
		if (id of w as text) is "%s" then
			close w
			return "closed"
		end if
	end repeat
	return "%s"
end tell`, id.WindowID, sentinelWindowNotFound)
}

// listScript enumerates every window and tab as one identifier per line,
// followed by aggregate counts.
func listScript() string {
	return fmt.Sprintf(`tell application "iTerm2"
	set idList to ""
	set windowCount to 0
	set tabCount to 0
	repeat with w in windows
		set windowCount to windowCount + 1
		set windowId to id of w as text
		set tabIndex to 0
		repeat with t in tabs of w
			set tabIndex to tabIndex + 1
			set tabCount to tabCount + 1
			set idList to idList & "%s-" & windowId & "-" & tabIndex & linefeed
		end repeat
	end repeat
	return idList & windowCount & " window(s), " & tabCount & " tab(s)"
end tell`, session.Prefix)
}

// focusScript raises the addressed tab's window and selects the tab.
func focusScript(id session.ID) string {
	body := `	select targetWindow
	select targetTab
	activate
	return "ok"`
	return findTabScript(id, body)
}
