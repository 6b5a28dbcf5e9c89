// Package anthropic implements the llm.Client interface for Anthropic's
// messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/insightbot/insightd/llm"
	"github.com/rs/zerolog"
)

const defaultMaxTokens = 4096

// Client implements llm.Client for Anthropic.
type Client struct {
	client *anthropic.Client
	model  string
	logger zerolog.Logger
}

// New creates a Client with the given API key.
func New(apiKey, model string, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: &client,
		model:  model,
		logger: logger.With().Str("component", "anthropic-client").Logger(),
	}, nil
}

// Synchronous implements llm.Client.Synchronous.
func (c *Client) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	system, msgs := SplitSystem(req.Messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  ToMessageParams(msgs),
		Tools:     ToToolUnionParams(req.Tools),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("message creation failed: %w", err)
	}

	resp := &llm.Response{}
	for _, blockUnion := range message.Content {
		switch block := blockUnion.AsAny().(type) {
		case anthropic.TextBlock:
			if resp.Text != "" {
				resp.Text += "\n"
			}
			resp.Text += block.Text
		case anthropic.ToolUseBlock:
			if resp.ToolCall != nil {
				// The dispatch loop handles a single call per turn.
				c.logger.Warn().Str("tool", block.Name).Msg("Ignoring additional tool use block")
				continue
			}
			args, err := json.Marshal(block.Input)
			if err != nil {
				args = []byte("{}")
			}
			resp.ToolCall = &llm.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(args),
			}
		}
	}

	return resp, nil
}
