// Package claude implements triage.Provider on the official Anthropic SDK.
package claude

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/frontline/internal/triage"
)

// Client implements the Provider interface for the Claude API.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a new Claude client with the given API key and model name.
// Construct a fresh client when credentials rotate; nothing here is global.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Send sends a request to the Claude API and returns the response.
func (c *Client) Send(ctx context.Context, req *triage.LLMRequest) (*triage.LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  toSDKMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude: %w", err)
	}

	return fromSDKMessage(msg), nil
}

// toSDKMessages converts triage messages to SDK message params.
func toSDKMessages(msgs []triage.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			if b.Type != "text" {
				continue
			}
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfText: &anthropic.TextBlockParam{Text: b.Text},
			})
		}
		out = append(out, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(m.Role),
			Content: blocks,
		})
	}
	return out
}

// fromSDKMessage converts an SDK response to the provider-neutral shape.
func fromSDKMessage(msg *anthropic.Message) *triage.LLMResponse {
	content := make([]triage.ContentBlock, 0, len(msg.Content))
	for _, b := range msg.Content {
		if b.Type != "text" {
			continue
		}
		content = append(content, triage.ContentBlock{Type: "text", Text: b.Text})
	}

	return &triage.LLMResponse{
		Content:    content,
		StopReason: triage.StopReason(msg.StopReason),
		Usage: triage.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		Model: string(msg.Model),
	}
}
