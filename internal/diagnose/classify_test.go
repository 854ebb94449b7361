package diagnose

import (
	"testing"

	"github.com/timvw/iterm-relay/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantOK    bool
		wantState model.State
	}{
		{
			name:      "empty screen is idle",
			content:   "",
			wantOK:    true,
			wantState: model.StateIdle,
		},
		{
			name:      "whitespace only is idle",
			content:   "  \n\t\n  ",
			wantOK:    true,
			wantState: model.StateIdle,
		},
		{
			name:      "dollar prompt is idle",
			content:   "$ make test\nok\nuser@host:~/src $",
			wantOK:    true,
			wantState: model.StateIdle,
		},
		{
			name:      "zsh percent prompt is idle",
			content:   "host%",
			wantOK:    true,
			wantState: model.StateIdle,
		},
		{
			name:    "download percentage is not a prompt",
			content: "Downloading...\n50%",
			wantOK:  false,
		},
		{
			name:      "sudo password prompt is waiting",
			content:   "$ sudo make install\nPassword:",
			wantOK:    true,
			wantState: model.StateWaiting,
		},
		{
			name:      "ssh passphrase is waiting",
			content:   "Enter passphrase for key '/home/u/.ssh/id_ed25519':",
			wantOK:    true,
			wantState: model.StateWaiting,
		},
		{
			name:      "pager colon is waiting",
			content:   "some text\n:",
			wantOK:    true,
			wantState: model.StateWaiting,
		},
		{
			name:      "pager END marker is waiting",
			content:   "last line of file\n(END)",
			wantOK:    true,
			wantState: model.StateWaiting,
		},
		{
			name:      "press enter to continue is waiting",
			content:   "Installation complete.\nPress ENTER to continue",
			wantOK:    true,
			wantState: model.StateWaiting,
		},
		{
			name:      "yes no bracket prompt is waiting",
			content:   "Proceed with installation? [y/N]",
			wantOK:    true,
			wantState: model.StateWaiting,
		},
		{
			name:    "compiler output mid-build is ambiguous",
			content: "compiling module a\ncompiling module b",
			wantOK:  false,
		},
		{
			name:    "agent tool output is ambiguous",
			content: "I'll examine the failing test next.\n\nRunning: go test ./...",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.content)
			if ok != tt.wantOK {
				t.Fatalf("Classify() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if model.ParseState(got.State) != tt.wantState {
				t.Errorf("Classify() state = %q, want %q", got.State, tt.wantState)
			}
			if got.Reason == "" {
				t.Error("Classify() returned an empty reason")
			}
			if tt.wantState == model.StateWaiting && len(got.Actions) == 0 {
				t.Error("waiting diagnosis must propose at least one action")
			}
		})
	}
}

func TestClassify_YesNoDefaultFollowsPrompt(t *testing.T) {
	// "y/N" capitalization signals the prompt's own default answer.
	got, ok := Classify("Overwrite existing file? [y/N]")
	if !ok {
		t.Fatal("yes/no prompt not classified")
	}
	if got.Recommended >= len(got.Actions) {
		t.Fatalf("recommended index %d out of range", got.Recommended)
	}
	if got.Actions[got.Recommended].Keys != "n" {
		t.Errorf("y/N default should recommend n, got %q", got.Actions[got.Recommended].Keys)
	}

	got, ok = Classify("Continue? (Y/n)")
	if !ok {
		t.Fatal("yes/no prompt not classified")
	}
	if got.Actions[got.Recommended].Keys != "y" {
		t.Errorf("Y/n default should recommend y, got %q", got.Actions[got.Recommended].Keys)
	}
}

func TestClassify_PasswordNeverAnswered(t *testing.T) {
	got, ok := Classify("Password:")
	if !ok {
		t.Fatal("password prompt not classified")
	}
	for _, a := range got.Actions {
		if a.Keys != "ctrl-c" {
			t.Errorf("password prompt must only offer an abort, got action %q", a.Keys)
		}
	}
}

func TestIsShellPrompt(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"$", true},
		{"user@host ~ $", true},
		{"root@box:/etc#", true},
		{"~/src ❯", true},
		{"host%", true},
		{"%", true},
		{"50%", false},
		{"", false},
		{"building", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := isShellPrompt(tt.line); got != tt.want {
				t.Errorf("isShellPrompt(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
