package diagnose

import (
	"strings"

	"github.com/timvw/iterm-relay/internal/model"
)

// Classify inspects screen content and returns a diagnosis for the shapes
// that need no LLM: an empty screen, a bare shell prompt at the bottom,
// and the common blocking prompts (password, pager, yes/no, press-a-key).
// ok is false when the content is ambiguous and should go to the evaluator.
func Classify(content string) (*model.LLMDiagnosis, bool) {
	trimmed := strings.TrimRight(content, " \t\r\n")
	if strings.TrimSpace(trimmed) == "" {
		return &model.LLMDiagnosis{
			State:  string(model.StateIdle),
			Reason: "screen is empty",
		}, true
	}

	lines := strings.Split(trimmed, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	lower := strings.ToLower(last)

	// Password prompts block everything and cannot be answered on the
	// user's behalf.
	if strings.Contains(lower, "password:") || strings.Contains(lower, "passphrase") {
		return &model.LLMDiagnosis{
			State:  string(model.StateWaiting),
			Reason: "a password prompt is blocking the terminal",
			Prompt: last,
			Actions: []model.Action{
				{Keys: "ctrl-c", Label: "abort the password prompt", Risk: "medium"},
			},
		}, true
	}

	if last == ":" || lower == "(end)" || strings.Contains(lower, "--more--") {
		return &model.LLMDiagnosis{
			State:  string(model.StateWaiting),
			Reason: "a pager is waiting for input",
			Prompt: last,
			Actions: []model.Action{
				{Keys: "space", Label: "scroll down", Risk: "low"},
				{Keys: "q", Label: "quit the pager", Risk: "low"},
			},
		}, true
	}

	for _, phrase := range []string{"press enter to continue", "press return to continue", "press any key"} {
		if strings.Contains(lower, phrase) {
			return &model.LLMDiagnosis{
				State:  string(model.StateWaiting),
				Reason: "the program is waiting for a keypress",
				Prompt: last,
				Actions: []model.Action{
					{Keys: "enter", Label: "continue", Risk: "low"},
				},
			}, true
		}
	}

	if diag := detectYesNo(last, lower); diag != nil {
		return diag, true
	}

	if isShellPrompt(last) {
		return &model.LLMDiagnosis{
			State:  string(model.StateIdle),
			Reason: "a shell prompt is showing",
		}, true
	}

	return nil, false
}

// detectYesNo matches the usual confirmation markers on the last line.
// The recommended action follows the prompt's own default: "y/N" means no.
func detectYesNo(last, lower string) *model.LLMDiagnosis {
	matched := strings.Contains(lower, "(y/n)") ||
		strings.Contains(lower, "[y/n]") ||
		strings.HasSuffix(lower, "y/n?") ||
		strings.Contains(lower, "yes/no")
	if !matched {
		return nil
	}
	recommended := 0
	if strings.Contains(last, "y/N") {
		recommended = 1
	}
	return &model.LLMDiagnosis{
		State:  string(model.StateWaiting),
		Reason: "a yes/no prompt is blocking the terminal",
		Prompt: last,
		Actions: []model.Action{
			{Keys: "y", Label: "answer yes", Risk: "medium"},
			{Keys: "n", Label: "answer no", Risk: "low"},
			{Keys: "ctrl-c", Label: "abort", Risk: "medium"},
		},
		Recommended: recommended,
	}
}

// isShellPrompt reports whether the line looks like an idle shell prompt.
// A trailing "%" only counts when it does not follow a digit, so progress
// output like "50%" is not mistaken for a zsh prompt.
func isShellPrompt(line string) bool {
	switch {
	case line == "":
		return false
	case strings.HasSuffix(line, "❯"), strings.HasSuffix(line, "$"), strings.HasSuffix(line, "#"):
		return true
	case strings.HasSuffix(line, "%"):
		rest := strings.TrimSuffix(line, "%")
		return rest == "" || !isDigit(rest[len(rest)-1])
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
