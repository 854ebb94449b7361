package diagnose

import "testing"

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON unchanged",
			input: `{"state": "idle", "reason": "shell prompt"}`,
			want:  `{"state": "idle", "reason": "shell prompt"}`,
		},
		{
			name:  "fenced json block",
			input: "```json\n{\"state\": \"busy\"}\n```",
			want:  `{"state": "busy"}`,
		},
		{
			name:  "fenced without language",
			input: "```\n{\"state\": \"busy\"}\n```",
			want:  `{"state": "busy"}`,
		},
		{
			name:  "fenced with whitespace",
			input: "  ```json\n{\"key\": \"value\"}\n```  ",
			want:  `{"key": "value"}`,
		},
		{
			name:  "multiline JSON in fences",
			input: "```json\n{\n  \"state\": \"waiting\",\n  \"recommended\": 0\n}\n```",
			want:  "{\n  \"state\": \"waiting\",\n  \"recommended\": 0\n}",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only fences no content",
			input: "```json\n```",
			want:  "",
		},
		{
			name:  "backticks inside content preserved",
			input: "{\"prompt\": \"run `make`?\"}",
			want:  "{\"prompt\": \"run `make`?\"}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripMarkdownFences(tt.input)
			if got != tt.want {
				t.Errorf("stripMarkdownFences(%q) =\n  %q\nwant:\n  %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPromptsLoaded(t *testing.T) {
	// Verify that embedded prompts are non-empty
	if SystemPrompt == "" {
		t.Error("SystemPrompt is empty — embed directive may have failed")
	}
	if UserPromptTemplate == "" {
		t.Error("UserPromptTemplate is empty — embed directive may have failed")
	}
}
