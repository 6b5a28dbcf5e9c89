// Package openai implements the llm.Client interface on top of the OpenAI
// chat completions API, including Azure OpenAI deployments.
package openai

import (
	"context"
	"fmt"

	"github.com/insightbot/insightd/llm"
	openai "github.com/sashabaranov/go-openai"
)

// Client implements llm.Client for OpenAI and Azure OpenAI.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a Client against the public OpenAI API.
// If baseURL is empty the default endpoint is used.
func New(apiKey, baseURL, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// NewAzure creates a Client against an Azure OpenAI endpoint. The model
// name doubles as the deployment name.
func NewAzure(apiKey, endpoint, apiVersion, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	config := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		config.APIVersion = apiVersion
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
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

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: ToOpenAIMessages(req.Messages),
	}

	if len(req.Tools) > 0 {
		chatReq.Tools = ToOpenAITools(req.Tools)
		// Let the model decide when to invoke an agent.
		chatReq.ToolChoice = "auto"
	}

	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	chatResp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return FromOpenAIMessage(chatResp.Choices[0].Message), nil
}
