package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/insightbot/insightd/llm"
	"github.com/insightbot/insightd/memory"
)

// ContextMemory recalls stored memories for the scope identified by the
// user_guid argument (injected by the dispatch loop).
type ContextMemory struct {
	manager *memory.Manager
}

// NewContextMemory creates a ContextMemory agent.
func NewContextMemory(manager *memory.Manager) *ContextMemory {
	return &ContextMemory{manager: manager}
}

// Name implements Agent.
func (c *ContextMemory) Name() string { return "ContextMemory" }

// Spec implements Agent.
func (c *ContextMemory) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        "ContextMemory",
		Description: "Recalls stored context memories for the current conversation. Use when the user asks what you remember or when earlier context is needed.",
		Schema: llm.ToolSchema{
			Type: "object",
			Properties: map[string]any{
				"user_guid": map[string]any{
					"type":        "string",
					"description": "The conversation's user GUID. Supplied automatically.",
				},
				"full_recall": map[string]any{
					"type":        "boolean",
					"description": "Return the complete memory document rather than a summary listing.",
				},
			},
			Required: []string{},
		},
	}
}

// Perform implements Agent.
func (c *ContextMemory) Perform(ctx context.Context, args map[string]any) (string, error) {
	// A bad GUID degrades the scope to shared; recall proceeds against
	// whatever scope was selected rather than failing.
	scope, _ := c.manager.SelectScope(ctx, argString(args, "user_guid"))

	doc, _ := c.manager.Read(ctx, scope)
	if len(doc) == 0 {
		if scope.IsShared() {
			return "No shared context memory available.", nil
		}
		return "No specific context memory available.", nil
	}

	if argBool(args, "full_recall") {
		content, err := json.MarshalIndent(doc, "", "    ")
		if err != nil {
			return "", fmt.Errorf("failed to render memories: %w", err)
		}
		return string(content), nil
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, doc[k])
	}
	return strings.TrimSpace(b.String()), nil
}
