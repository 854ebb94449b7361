package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		in   string
		want State
	}{
		{"busy", StateBusy},
		{"idle", StateIdle},
		{"waiting", StateWaiting},
		{"unknown", StateUnknown},
		{"WAITING", StateWaiting},
		{"  idle \n", StateIdle},
		{"", StateUnknown},
		{"blocked", StateUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseState(tt.in); got != tt.want {
				t.Errorf("ParseState(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildCaptureHeader(t *testing.T) {
	tests := []struct {
		name      string
		term      Terminal
		wantEmpty bool
		contains  []string
	}{
		{
			name:      "no identifier",
			term:      Terminal{},
			wantEmpty: true,
		},
		{
			name: "full identity",
			term: Terminal{
				ID:       "term-231-2",
				WindowID: "231",
				Tab:      2,
				Name:     "build",
			},
			contains: []string{
				"[Terminal Info]",
				"Identifier: term-231-2",
				"Window: 231",
				"Tab: 2",
				"Name: build",
				"[Screen Content]",
			},
		},
		{
			name: "without session name",
			term: Terminal{ID: "term-100-1", WindowID: "100", Tab: 1},
			contains: []string{
				"Identifier: term-100-1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildCaptureHeader(tt.term)
			if tt.wantEmpty {
				if got != "" {
					t.Errorf("expected empty string, got %q", got)
				}
				return
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("BuildCaptureHeader() missing %q in:\n%s", want, got)
				}
			}
			if tt.term.Name == "" && strings.Contains(got, "Name:") {
				t.Errorf("BuildCaptureHeader() has a Name line without a name:\n%s", got)
			}
		})
	}
}

func TestDiagnosis_RecommendedZeroInJSON(t *testing.T) {
	// Recommended=0 is a valid index (first action). It must appear in JSON
	// output, not be omitted by omitempty.
	d := Diagnosis{
		ID:     "term-231-1",
		State:  StateWaiting,
		Reason: "confirmation dialog",
		Actions: []Action{
			{Keys: "enter", Label: "approve", Risk: "medium"},
			{Keys: "escape", Label: "reject", Risk: "low"},
		},
		Recommended: 0,
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	if !strings.Contains(string(data), `"recommended":0`) {
		t.Errorf("JSON output missing \"recommended\":0, got: %s", string(data))
	}
}

func TestDiagnosis_PromptInJSON(t *testing.T) {
	d := Diagnosis{
		ID:     "term-231-1",
		State:  StateWaiting,
		Reason: "package manager asking to proceed",
		Prompt: "Proceed with installation? [y/N]",
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	if !strings.Contains(string(data), `"prompt"`) {
		t.Errorf("JSON output missing prompt field, got: %s", string(data))
	}
	if !strings.Contains(string(data), "Proceed with installation") {
		t.Errorf("JSON output missing prompt content, got: %s", string(data))
	}
}

func TestDiagnosis_VerboseFieldsOmittedWhenEmpty(t *testing.T) {
	d := Diagnosis{ID: "term-100-1", State: StateIdle, Reason: "shell prompt"}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	for _, field := range []string{`"content"`, `"model"`, `"provider"`, `"reasoning"`} {
		if strings.Contains(string(data), field) {
			t.Errorf("JSON output should omit empty %s, got: %s", field, string(data))
		}
	}
}
