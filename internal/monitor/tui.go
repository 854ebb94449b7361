package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/timvw/iterm-relay/internal/activity"
	"github.com/timvw/iterm-relay/internal/iterm"
	"github.com/timvw/iterm-relay/internal/session"
)

// view mode
type viewMode int

const (
	modeList viewMode = iota
	modeTextInput
)

// messages
type scanResultMsg struct {
	result *ScanResult
	err    error
}

type actionDoneMsg struct {
	message string
	err     error
}

type tickMsg struct{}

// TUI runs the interactive terminal monitor.
type TUI struct {
	Scanner *Scanner
	App     *iterm.App
	// Activity is the store fed by the collector; nil hides the feed.
	Activity *activity.Store
	// RefreshInterval between scans. 0 disables auto-refresh.
	RefreshInterval time.Duration
	ThemeName       string
}

// tuiModel implements tea.Model.
type tuiModel struct {
	scanner         *Scanner
	app             *iterm.App
	store           *activity.Store
	ctx             context.Context
	refreshInterval time.Duration
	st              styles

	statuses []Status
	cursor   int
	mode     viewMode

	textInput textinput.Model
	// textTarget is the identifier the typed text goes to.
	textTarget string

	width  int
	height int

	scanning  bool
	message   string
	scanCount int
}

func (t *TUI) Run(ctx context.Context) error {
	ti := textinput.New()
	ti.Placeholder = "Type text and press Enter to send..."
	ti.CharLimit = 2048
	ti.Width = 80

	m := &tuiModel{
		scanner:         t.Scanner,
		app:             t.App,
		store:           t.Activity,
		ctx:             ctx,
		refreshInterval: t.RefreshInterval,
		st:              newStyles(ThemeByName(t.ThemeName)),
		textInput:       ti,
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *tuiModel) Init() tea.Cmd {
	m.scanning = true
	return m.doScan()
}

// scheduleTick returns a command that fires after the refresh interval,
// or nil when auto-refresh is disabled.
func (m *tuiModel) scheduleTick() tea.Cmd {
	if m.refreshInterval <= 0 {
		return nil
	}
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *tuiModel) doScan() tea.Cmd {
	scanner := m.scanner
	ctx := m.ctx
	return func() tea.Msg {
		result, err := scanner.Scan(ctx)
		return scanResultMsg{result: result, err: err}
	}
}

// selected returns the status under the cursor, or nil.
func (m *tuiModel) selected() *Status {
	if m.cursor < 0 || m.cursor >= len(m.statuses) {
		return nil
	}
	return &m.statuses[m.cursor]
}

func (m *tuiModel) selectedID() (session.ID, string, bool) {
	sel := m.selected()
	if sel == nil {
		return session.ID{}, "", false
	}
	return session.ID{WindowID: sel.Terminal.WindowID, Tab: sel.Terminal.Tab}, sel.Terminal.ID, true
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case scanResultMsg:
		m.scanning = false
		if msg.err != nil {
			m.message = fmt.Sprintf("Scan error: %v", msg.err)
		} else if msg.result != nil {
			m.statuses = msg.result.Statuses
			m.scanCount++
			if m.cursor >= len(m.statuses) {
				m.cursor = 0
			}
		}
		if cmd := m.scheduleTick(); cmd != nil {
			return m, cmd
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("%s: %v", msg.message, msg.err)
		} else {
			m.message = msg.message
		}
		m.scanning = true
		return m, m.doScan()

	case tickMsg:
		if m.scanning || m.mode == modeTextInput {
			return m, m.scheduleTick()
		}
		m.scanning = true
		return m, m.doScan()
	}

	return m, nil
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeTextInput {
		return m.handleTextInputKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.statuses)-1 {
			m.cursor++
		}

	case "enter", "f":
		// Jump to the selected terminal's window.
		if id, label, ok := m.selectedID(); ok {
			return m, m.runAction(fmt.Sprintf("Focused %s", label), func(ctx context.Context) error {
				return m.app.Focus(ctx, id)
			})
		}

	case "o":
		return m, m.runAction("Opened a new terminal", func(ctx context.Context) error {
			_, err := m.app.Open(ctx)
			return err
		})

	case "x":
		if id, label, ok := m.selectedID(); ok {
			if m.scanner.Tracker != nil {
				m.scanner.Tracker.Forget(label)
			}
			return m, m.runAction(fmt.Sprintf("Closed %s", label), func(ctx context.Context) error {
				_, err := m.app.Close(ctx, id)
				return err
			})
		}

	case "t":
		if _, label, ok := m.selectedID(); ok {
			m.mode = modeTextInput
			m.textTarget = label
			m.textInput.SetValue("")
			m.textInput.Focus()
			return m, textinput.Blink
		}

	case "r":
		m.scanning = true
		m.message = ""
		return m, m.doScan()
	}

	return m, nil
}

func (m *tuiModel) handleTextInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "escape":
		m.mode = modeList
		m.textTarget = ""
		m.textInput.Blur()
		return m, nil

	case "enter":
		text := m.textInput.Value()
		target := m.textTarget
		m.mode = modeList
		m.textTarget = ""
		m.textInput.Blur()
		if text == "" || target == "" {
			return m, nil
		}
		id, err := session.Parse(target)
		if err != nil {
			m.message = fmt.Sprintf("Send failed: %v", err)
			return m, nil
		}
		if m.scanner.Tracker != nil {
			m.scanner.Tracker.Forget(target)
		}
		return m, m.runAction(fmt.Sprintf("Sent '%s' to %s", truncate(text, 40), target), func(ctx context.Context) error {
			return m.app.WriteText(ctx, id, text, true)
		})
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// runAction performs an iTerm2 operation off the update loop and reports
// back through actionDoneMsg, which triggers a rescan.
func (m *tuiModel) runAction(message string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{message: message, err: fn(ctx)}
	}
}

func (m *tuiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.mode == modeTextInput {
		return m.viewTextInput()
	}
	return m.viewList()
}

func (m *tuiModel) viewList() string {
	var b strings.Builder

	b.WriteString(m.st.title.Render("iTerm Relay Monitor"))
	b.WriteString("  ")
	b.WriteString(m.st.dim.Render("Enter/f=focus  t=type  o=open  x=close  r=rescan  q=quit"))
	if m.scanning {
		b.WriteString("  ")
		b.WriteString(m.st.changed.Render("scanning..."))
	}
	b.WriteString("\n")

	if len(m.statuses) == 0 {
		if m.scanning {
			b.WriteString("  Scanning terminals...\n")
		} else {
			b.WriteString("  No terminals open. Press o to open one.\n")
		}
		if m.message != "" {
			b.WriteString(m.st.dim.Render("  " + m.message))
			b.WriteString("\n")
		}
		return b.String()
	}

	// Layout: identifier column | activity column | preview panel.
	nameWidth := 12
	for _, st := range m.statuses {
		if len(st.Terminal.ID)+4 > nameWidth {
			nameWidth = len(st.Terminal.ID) + 4
		}
	}

	separator := " | "
	previewWidth := m.width * 55 / 100
	if previewWidth < 20 {
		previewWidth = 20
	}
	activityWidth := m.width - nameWidth - previewWidth - len(separator)*2
	if activityWidth < 12 {
		activityWidth = 12
	}

	panelHeight := m.height - 3
	if panelHeight < 3 {
		panelHeight = 3
	}
	maxVisible := panelHeight - 1
	if maxVisible < 2 {
		maxVisible = 2
	}
	if maxVisible > len(m.statuses) {
		maxVisible = len(m.statuses)
	}

	// Scroll window that keeps the cursor visible.
	start := 0
	end := maxVisible
	if m.cursor >= end {
		end = m.cursor + 1
		start = end - maxVisible
	}
	if start < 0 {
		start = 0
		end = maxVisible
	}

	previewLines := m.buildPreview(previewWidth, panelHeight-1)

	sep := m.st.header.Render(separator)
	row := 0
	for i := start; i < end && i < len(m.statuses); i++ {
		nameCol, activityCol := m.renderRow(i, nameWidth, activityWidth)
		previewCol := ""
		if row < len(previewLines) {
			previewCol = previewLines[row]
		}
		b.WriteString(nameCol)
		b.WriteString(sep)
		b.WriteString(activityCol)
		b.WriteString(sep)
		b.WriteString(previewCol)
		b.WriteString("\n")
		row++
	}

	// Keep rendering the preview when it is taller than the list.
	for row < panelHeight-1 && row < len(previewLines) {
		b.WriteString(padRight("", nameWidth))
		b.WriteString(sep)
		b.WriteString(padRight("", activityWidth))
		b.WriteString(sep)
		b.WriteString(previewLines[row])
		b.WriteString("\n")
		row++
	}

	changed := 0
	failed := 0
	for _, st := range m.statuses {
		if st.Changed {
			changed++
		}
		if st.Err != nil {
			failed++
		}
	}
	summary := fmt.Sprintf("  %d terminals | %d changed | scan #%d", len(m.statuses), changed, m.scanCount)
	if failed > 0 {
		summary += fmt.Sprintf(" | %d capture failures", failed)
	}
	if start > 0 || end < len(m.statuses) {
		summary += fmt.Sprintf(" | showing %d-%d", start+1, end)
	}
	b.WriteString(m.st.dim.Render(summary))
	b.WriteString("\n")

	if m.message != "" {
		b.WriteString(m.st.dim.Render("  " + m.message))
		b.WriteString("\n")
	}

	return b.String()
}

// renderRow renders the identifier and activity columns for one terminal.
func (m *tuiModel) renderRow(idx, nameWidth, activityWidth int) (string, string) {
	st := m.statuses[idx]

	icon := m.st.settled.Render("·")
	if st.Changed {
		icon = m.st.changed.Render("▸")
	}
	if st.Err != nil {
		icon = m.st.err.Render("✗")
	}

	activityText := m.activityLine(st)
	activityText = truncate(activityText, activityWidth)

	if idx == m.cursor {
		name := m.st.selected.Render(padRight(fmt.Sprintf("→ %s %s", iconText(st), st.Terminal.ID), nameWidth))
		return name, m.st.selected.Render(padRight(activityText, activityWidth))
	}
	name := padRight(fmt.Sprintf("  %s %s", icon, st.Terminal.ID), nameWidth)
	return name, m.st.dim.Render(padRight(activityText, activityWidth))
}

// activityLine describes the assistant's last recorded action against a
// terminal, or the capture error when the scan could not read it.
func (m *tuiModel) activityLine(st Status) string {
	if st.Err != nil {
		return fmt.Sprintf("capture failed: %v", st.Err)
	}
	if m.store == nil {
		return ""
	}
	e, ok := m.store.Latest(st.Terminal.ID)
	if !ok {
		return ""
	}
	age := time.Since(e.TS).Round(time.Second)
	line := fmt.Sprintf("%s %s ago", e.Tool, age)
	if activity.IsFailure(e.Outcome) {
		line += " (" + e.Outcome + ")"
	} else if e.Message != "" {
		line += ": " + e.Message
	}
	return line
}

// buildPreview renders the selected terminal's captured content, wrapped
// to the panel width and clipped to its height.
func (m *tuiModel) buildPreview(width, height int) []string {
	sel := m.selected()
	if sel == nil {
		return nil
	}

	var lines []string
	lines = append(lines, m.st.dim.Render(truncate(sel.Terminal.ID, width)))

	if sel.Err != nil {
		lines = append(lines, m.st.err.Render(truncate(fmt.Sprintf("capture failed: %v", sel.Err), width)))
		return lines
	}
	if strings.TrimSpace(sel.Content) == "" {
		lines = append(lines, m.st.dim.Render("(no output)"))
		return lines
	}

	content := strings.Split(sel.Content, "\n")
	// Show the tail: the bottom of the buffer is where the action is.
	budget := height - 1
	if budget < 1 {
		budget = 1
	}
	if len(content) > budget {
		content = content[len(content)-budget:]
	}
	for _, line := range content {
		lines = append(lines, m.st.text.Render(truncate(line, width)))
		if len(lines) >= height {
			break
		}
	}
	return lines
}

func (m *tuiModel) viewTextInput() string {
	var b strings.Builder

	b.WriteString(m.st.title.Render("  Send Text"))
	b.WriteString("\n")
	b.WriteString(m.st.header.Render("  ─────────────────────────────────────────"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Target: %s\n", m.textTarget))
	b.WriteString("\n")
	b.WriteString(m.st.dim.Render("  Enter=send  Escape=cancel"))
	b.WriteString("\n\n")
	b.WriteString("  " + m.textInput.View())
	b.WriteString("\n")

	return b.String()
}

func iconText(st Status) string {
	if st.Err != nil {
		return "✗"
	}
	if st.Changed {
		return "▸"
	}
	return "·"
}

// truncate cuts a string to at most maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// padRight pads a string with spaces to the desired visible width.
func padRight(s string, width int) string {
	visible := visibleLen(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// visibleLen is the length of a string ignoring ANSI escape sequences.
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		n++
	}
	return n
}
