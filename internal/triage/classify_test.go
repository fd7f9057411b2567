package triage

import (
	"strings"
	"testing"
)

func TestParseIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
		want  Intent
	}{
		{"exact query", "QUERY", IntentQuery},
		{"exact feedback", "FEEDBACK", IntentFeedback},
		{"exact complaint", "COMPLAINT", IntentComplaint},
		{"exact unknown", "UNKNOWN", IntentUnknown},
		{"lowercase enum", "complaint", IntentComplaint},
		{"trailing period", "QUERY.", IntentQuery},
		{"quoted", `"FEEDBACK"`, IntentFeedback},
		{"surrounding whitespace", "  COMPLAINT \n", IntentComplaint},
		{"free text complaint", "This is clearly a complaint about service", IntentComplaint},
		{"free text feedback", "Sounds like feedback to me", IntentFeedback},
		{"free text feature request", "The customer wants a new feature", IntentFeedback},
		{"unrecognized defaults to query", "I cannot classify this message", IntentQuery},
		{"empty defaults to query", "", IntentQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseIntent(tt.reply); got != tt.want {
				t.Errorf("parseIntent(%q) = %q, want %q", tt.reply, got, tt.want)
			}
		})
	}
}

func TestClassifySystemPrompt(t *testing.T) {
	t.Parallel()

	prompt := classifySystemPrompt("BNY Private Banking")
	if !strings.Contains(prompt, "BNY Private Banking") {
		t.Error("prompt should name the domain")
	}
	for _, word := range []string{"QUERY", "FEEDBACK", "COMPLAINT", "UNKNOWN"} {
		if !strings.Contains(prompt, word) {
			t.Errorf("prompt missing intent %q", word)
		}
	}
}
