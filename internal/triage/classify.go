package triage

import (
	"context"
	"fmt"
	"strings"
)

const classifyTokens = 64

// classifyIntent asks the LLM to bucket the message into one of the four
// intents. The reply is parsed leniently: a recognized enum value wins, free
// text falls back to substring matching, and a transport failure silently
// defaults to QUERY. This stage never fails the pipeline.
func (r *run) classifyIntent(ctx context.Context, message, domainName string) (Intent, error) {
	req := &LLMRequest{
		MaxTokens: classifyTokens,
		System:    classifySystemPrompt(domainName),
		Messages:  []Message{TextMessage("user", message)},
	}

	resp, err := r.call(ctx, StageClassify, req)
	if err != nil {
		return IntentQuery, fmt.Errorf("classify intent: %w", err)
	}

	return parseIntent(resp.Text()), nil
}

func classifySystemPrompt(domainName string) string {
	return fmt.Sprintf(`You classify customer messages for %s.

Respond with exactly one word, chosen from:
QUERY - the customer is asking a question or requesting information
FEEDBACK - the customer is sharing an opinion, suggestion, or feature request
COMPLAINT - the customer is dissatisfied or reporting a problem
UNKNOWN - none of the above fit

No punctuation, no explanation.`, domainName)
}

// parseIntent maps a model reply to an Intent. Exact enum values are used
// directly; anything else goes through the substring fallback.
func parseIntent(reply string) Intent {
	cleaned := strings.ToUpper(strings.Trim(strings.TrimSpace(reply), `."'`))
	switch Intent(cleaned) {
	case IntentQuery, IntentFeedback, IntentComplaint, IntentUnknown:
		return Intent(cleaned)
	}

	lower := strings.ToLower(reply)
	switch {
	case strings.Contains(lower, "complaint"):
		return IntentComplaint
	case strings.Contains(lower, "feedback"), strings.Contains(lower, "feature"):
		return IntentFeedback
	default:
		return IntentQuery
	}
}
