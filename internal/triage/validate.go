package triage

import (
	"context"
	"encoding/json"
	"fmt"
)

const validateTokens = 256

// ValidationUnavailableReason is reported when the validation call itself
// fails. Validation is fail-open: the reply is delivered regardless.
const ValidationUnavailableReason = "Validation service unavailable"

type validationVerdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// validateReply issues an independent audit of the generated reply. A
// negative verdict is surfaced as metadata only; the reply is never altered
// or withheld here.
func (r *run) validateReply(
	ctx context.Context,
	message string,
	intent Intent,
	risk RiskAssessment,
	customerContext json.RawMessage,
	generated string,
) (bool, string, error) {
	req := &LLMRequest{
		MaxTokens: validateTokens,
		System:    validateSystemPrompt(intent, risk, customerContext),
		Messages: []Message{TextMessage("user", fmt.Sprintf(
			"Customer message:\n%s\n\nGenerated reply:\n%s", message, generated,
		))},
	}

	resp, err := r.call(ctx, StageValidate, req)
	if err != nil {
		return true, ValidationUnavailableReason, fmt.Errorf("validate reply: %w", err)
	}

	var verdict validationVerdict
	if err := extractJSON(resp.Text(), &verdict); err != nil {
		return true, ValidationUnavailableReason, fmt.Errorf("validate reply: %w", err)
	}
	if verdict.Reason == "" {
		verdict.Reason = "No reason given"
	}

	return verdict.Valid, verdict.Reason, nil
}

func validateSystemPrompt(intent Intent, risk RiskAssessment, customerContext json.RawMessage) string {
	return fmt.Sprintf(`You audit customer support replies before delivery.

Check the generated reply against three criteria:
1. Relevance: does it actually address the customer's message?
2. Factual alignment: every number, transaction ID, order ID, and account
   reference must match the customer record below; flag hallucinated values.
3. Tone: appropriate for a %s-intent message at %s risk.

Customer record:
%s

Respond with a JSON object: {"valid": true|false, "reason": "<one sentence>"}.
Output only the JSON object.`, intent, risk.Level, string(customerContext))
}
