// Package slack sends triage escalation notices to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/frontline/internal/triage"
)

const (
	maxReplyLen = 1500
	httpTimeout = 10 * time.Second
)

// Notifier sends triage results to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Notify is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Notify posts a triage result to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Notify(ctx context.Context, result *triage.Result) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(result)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(r *triage.Result) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(r),
			{"type": "divider"},
			fieldsBlock(r),
			{"type": "divider"},
			replyBlock(r),
			{"type": "divider"},
			contextBlock(r),
		},
	}
}

func headerBlock(r *triage.Result) map[string]any {
	title := "Triage Escalation"
	if r.SLABreachPredicted {
		title = "SLA Breach Predicted"
	}
	text := fmt.Sprintf("%s %s [%s]", riskEmoji(r.RiskLevel), title, r.DomainID)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(r *triage.Result) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Intent:* %s", r.Intent),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Risk:* %s (%d)", r.RiskLevel, r.RiskScore),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*SLA target:* %.2fh", r.SLATargetHours),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Breach predicted:* %v", r.SLABreachPredicted),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Teams:* %s", strings.Join(r.NotifiedTeams, ", ")),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Validation:* %v", r.ValidationPassed),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func replyBlock(r *triage.Result) map[string]any {
	text := truncate(r.Reply, maxReplyLen)
	if text == "" {
		text = "_No reply available._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Customer message*\n%s\n\n*Reply sent*\n%s", truncate(r.Message, maxReplyLen), text),
		},
	}
}

func contextBlock(r *triage.Result) map[string]any {
	ts := r.CompletedAt
	if ts.IsZero() {
		ts = r.CreatedAt
	}

	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("frontline • triage %s • %s", r.ID, ts.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func riskEmoji(level triage.RiskLevel) string {
	switch level {
	case triage.RiskCritical:
		return "\U0001f534" // red circle
	case triage.RiskHigh:
		return "\U0001f7e0" // orange circle
	case triage.RiskMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
