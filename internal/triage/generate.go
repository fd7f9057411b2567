package triage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/linnemanlabs/frontline/internal/domain"
)

const generateTokens = 2048

// FallbackReply is returned when response generation fails for any reason.
const FallbackReply = "We're sorry, we are having trouble responding right now. " +
	"A support specialist has been notified and will follow up with you shortly."

// generatedReply is the structured shape requested from the model.
type generatedReply struct {
	Reply   string `json:"reply"`
	Actions []struct {
		Label   string `json:"label"`
		Trigger string `json:"trigger"`
		Kind    string `json:"kind"`
	} `json:"actions"`
}

// generateReply asks the LLM for a grounded customer reply plus suggested
// actions, given the full conversation and everything the earlier stages
// computed. On any failure it falls back to the fixed apology with no
// actions; there is no retry or regeneration.
func (r *run) generateReply(
	ctx context.Context,
	message string,
	history []ConversationMessage,
	intent Intent,
	risk RiskAssessment,
	sla SLAAssessment,
	teams []string,
	customerContext json.RawMessage,
	d *domain.Config,
) (string, []SuggestedAction, error) {
	messages := make([]Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, TextMessage(m.Role, m.Content))
	}
	messages = append(messages, TextMessage("user", message))

	req := &LLMRequest{
		MaxTokens: generateTokens,
		System:    generateSystemPrompt(intent, risk, sla, teams, customerContext, d),
		Messages:  messages,
	}

	resp, err := r.call(ctx, StageGenerate, req)
	if err != nil {
		return FallbackReply, nil, fmt.Errorf("generate reply: %w", err)
	}

	var parsed generatedReply
	if err := extractJSON(resp.Text(), &parsed); err != nil || parsed.Reply == "" {
		if err == nil {
			err = fmt.Errorf("empty reply field")
		}
		return FallbackReply, nil, fmt.Errorf("generate reply: %w", err)
	}

	actions := make([]SuggestedAction, 0, len(parsed.Actions))
	for _, a := range parsed.Actions {
		kind := ActionKind(a.Kind)
		if kind != ActionData && kind != ActionAction {
			kind = ActionData
		}
		actions = append(actions, SuggestedAction{Label: a.Label, Trigger: a.Trigger, Kind: kind})
	}

	return parsed.Reply, actions, nil
}

func generateSystemPrompt(
	intent Intent,
	risk RiskAssessment,
	sla SLAAssessment,
	teams []string,
	customerContext json.RawMessage,
	d *domain.Config,
) string {
	tone := "professional and helpful"
	switch {
	case risk.Level == RiskHigh || risk.Level == RiskCritical:
		tone = "apologetic, acknowledging the urgency of the situation"
	case intent == IntentComplaint:
		tone = "empathetic and understanding"
	}

	teamsJSON, _ := json.Marshal(teams)

	return fmt.Sprintf(`You are a customer support assistant for %s (%s).

Triage already performed on this message:
- intent: %s
- risk level: %s (score %d)
- resolution target: %.2f hours, breach predicted: %v (%s)
- teams notified: %s

Customer record (authoritative, do not invent data beyond it):
%s

Respond with a JSON object:
{"reply": "<your answer to the customer>", "actions": [{"label": "<button text>", "trigger": "<message sent when clicked>", "kind": "data|action"}]}

Rules:
- Tone: %s.
- Quote transaction, order, and account identifiers from the customer record verbatim.
- Never mention risk scores, SLA targets, triage, or internal team names to the customer.
- Suggest at most three actions; omit the array if none apply.
- Output only the JSON object.`,
		d.Name, d.Description,
		intent, risk.Level, risk.Score,
		sla.TargetHours, sla.BreachPredicted, sla.Reason,
		string(teamsJSON),
		string(customerContext),
		tone,
	)
}
