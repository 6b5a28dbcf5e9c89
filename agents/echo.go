package agents

import (
	"context"

	"github.com/insightbot/insightd/llm"
)

// Echo returns its text argument verbatim. It exists as a connectivity
// check for the dispatch pipeline.
type Echo struct{}

// NewEcho creates an Echo agent.
func NewEcho() *Echo { return &Echo{} }

// Name implements Agent.
func (e *Echo) Name() string { return "Echo" }

// Spec implements Agent.
func (e *Echo) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        "Echo",
		Description: "Returns the provided text unchanged. Use to verify that agent dispatch is working.",
		Schema: llm.ToolSchema{
			Type: "object",
			Properties: map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The text to echo back.",
				},
			},
			Required: []string{"text"},
		},
	}
}

// Perform implements Agent.
func (e *Echo) Perform(_ context.Context, args map[string]any) (string, error) {
	return argString(args, "text"), nil
}
