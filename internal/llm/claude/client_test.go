package claude

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/linnemanlabs/frontline/internal/triage"
)

func TestToSDKMessages_TextBlock(t *testing.T) {
	t.Parallel()

	msgs := []triage.Message{{
		Role:    "user",
		Content: []triage.ContentBlock{{Type: "text", Text: "hello"}},
	}}

	result := toSDKMessages(msgs)

	if len(result) != 1 {
		t.Fatalf("len = %d, want 1", len(result))
	}
	if result[0].Role != "user" {
		t.Errorf("role = %q, want %q", result[0].Role, "user")
	}
	if len(result[0].Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(result[0].Content))
	}
	if result[0].Content[0].OfText == nil {
		t.Fatal("expected OfText to be set")
	}
	if result[0].Content[0].OfText.Text != "hello" {
		t.Errorf("text = %q, want %q", result[0].Content[0].OfText.Text, "hello")
	}
}

func TestToSDKMessages_MultiTurn(t *testing.T) {
	t.Parallel()

	msgs := []triage.Message{
		triage.TextMessage("user", "where is my order?"),
		triage.TextMessage("assistant", "it is on the way"),
		triage.TextMessage("user", "it never arrived"),
	}

	result := toSDKMessages(msgs)

	if len(result) != 3 {
		t.Fatalf("len = %d, want 3", len(result))
	}
	wantRoles := []string{"user", "assistant", "user"}
	for i, want := range wantRoles {
		if string(result[i].Role) != want {
			t.Errorf("result[%d].Role = %q, want %q", i, result[i].Role, want)
		}
	}
}

func TestToSDKMessages_SkipsNonTextBlocks(t *testing.T) {
	t.Parallel()

	msgs := []triage.Message{{
		Role: "user",
		Content: []triage.ContentBlock{
			{Type: "image", Text: "ignored"},
			{Type: "text", Text: "kept"},
		},
	}}

	result := toSDKMessages(msgs)

	if len(result[0].Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(result[0].Content))
	}
	if result[0].Content[0].OfText.Text != "kept" {
		t.Errorf("text = %q, want %q", result[0].Content[0].OfText.Text, "kept")
	}
}

func TestFromSDKMessage_TextContent(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "triage reply"},
		},
		StopReason: anthropic.StopReasonEndTurn,
		Usage:      anthropic.Usage{InputTokens: 100, OutputTokens: 50},
		Model:      "claude-sonnet-4-20250514",
	}

	result := fromSDKMessage(msg)

	if len(result.Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(result.Content))
	}
	if result.Content[0].Type != "text" {
		t.Errorf("type = %q, want %q", result.Content[0].Type, "text")
	}
	if result.Content[0].Text != "triage reply" {
		t.Errorf("text = %q, want %q", result.Content[0].Text, "triage reply")
	}
	if result.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", result.Model)
	}
	if result.Text() != "triage reply" {
		t.Errorf("Text() = %q", result.Text())
	}
}

func TestFromSDKMessage_StopReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sdk      anthropic.StopReason
		expected triage.StopReason
	}{
		{"end_turn", anthropic.StopReasonEndTurn, triage.StopEnd},
		{"max_tokens", anthropic.StopReasonMaxTokens, triage.StopMaxTokens},
		{"unknown passthrough", anthropic.StopReason("refusal"), triage.StopReason("refusal")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := &anthropic.Message{
				StopReason: tt.sdk,
				Usage:      anthropic.Usage{},
			}
			result := fromSDKMessage(msg)
			if result.StopReason != tt.expected {
				t.Errorf("stop reason = %q, want %q", result.StopReason, tt.expected)
			}
		})
	}
}

func TestFromSDKMessage_Usage(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		StopReason: anthropic.StopReasonEndTurn,
		Usage:      anthropic.Usage{InputTokens: 1234, OutputTokens: 567},
	}

	result := fromSDKMessage(msg)

	if result.Usage.InputTokens != 1234 {
		t.Errorf("input tokens = %d, want 1234", result.Usage.InputTokens)
	}
	if result.Usage.OutputTokens != 567 {
		t.Errorf("output tokens = %d, want 567", result.Usage.OutputTokens)
	}
}
