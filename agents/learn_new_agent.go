package agents

import (
	"context"
	"fmt"

	"github.com/insightbot/insightd/llm"
)

const definitionTemplate = `A JSON document of the form:
{
  "name": "<AgentName, no spaces>",
  "description": "<when the agent should be used and what it does>",
  "parameters": {
    "type": "object",
    "properties": {
      "<parameter name>": {"type": "<parameter type, e.g. string>", "description": "<what the parameter is used for>"}
    },
    "required": ["<name of required parameter>"]
  },
  "program": "<a jq expression evaluated against the arguments object; its first output becomes the agent's result text>"
}`

// LearnNewAgent publishes a new dynamic agent definition to the blob store.
// The definition becomes available on the next discovery pass, not in the
// current registry.
type LearnNewAgent struct {
	loader *Loader
}

// NewLearnNewAgent creates a LearnNewAgent agent.
func NewLearnNewAgent(loader *Loader) *LearnNewAgent {
	return &LearnNewAgent{loader: loader}
}

// Name implements Agent.
func (l *LearnNewAgent) Name() string { return "LearnNewAgent" }

// Spec implements Agent.
func (l *LearnNewAgent) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        "LearnNewAgent",
		Description: "Creates a new agent from a definition document and makes it available for future requests.",
		Schema: llm.ToolSchema{
			Type: "object",
			Properties: map[string]any{
				"agent_name": map[string]any{
					"type":        "string",
					"description": "The name of the new agent.",
				},
				"definition": map[string]any{
					"type":        "string",
					"description": definitionTemplate,
				},
			},
			Required: []string{"agent_name", "definition"},
		},
	}
}

// Perform implements Agent.
func (l *LearnNewAgent) Perform(ctx context.Context, args map[string]any) (string, error) {
	name := argString(args, "agent_name")
	def := argString(args, "definition")
	if name == "" || def == "" {
		return "Error: Both agent_name and definition are required", nil
	}

	published, err := l.loader.Publish(ctx, name, def)
	if err != nil {
		return fmt.Sprintf("Failed to create agent: %s (%v)", name, err), nil
	}
	return fmt.Sprintf("Successfully created new agent: %s", published), nil
}
