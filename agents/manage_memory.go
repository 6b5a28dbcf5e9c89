package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/insightbot/insightd/llm"
	"github.com/insightbot/insightd/memory"
)

// ManageMemory stores and clears memories in the scope identified by the
// user_guid argument (injected by the dispatch loop).
type ManageMemory struct {
	manager *memory.Manager
}

// NewManageMemory creates a ManageMemory agent.
func NewManageMemory(manager *memory.Manager) *ManageMemory {
	return &ManageMemory{manager: manager}
}

// Name implements Agent.
func (m *ManageMemory) Name() string { return "ManageMemory" }

// Spec implements Agent.
func (m *ManageMemory) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        "ManageMemory",
		Description: "Stores a new memory or clears a conversation's memories. Use when the user asks you to remember or forget something.",
		Schema: llm.ToolSchema{
			Type: "object",
			Properties: map[string]any{
				"action": map[string]any{
					"type":        "string",
					"description": "The operation to perform: 'add' to store a memory, 'clear' to erase the conversation's memories.",
				},
				"key": map[string]any{
					"type":        "string",
					"description": "A short label for the memory being stored. Optional; a timestamp is used when omitted.",
				},
				"value": map[string]any{
					"type":        "string",
					"description": "The content of the memory being stored.",
				},
				"user_guid": map[string]any{
					"type":        "string",
					"description": "The conversation's user GUID. Supplied automatically.",
				},
			},
			Required: []string{"action"},
		},
	}
}

// Perform implements Agent.
func (m *ManageMemory) Perform(ctx context.Context, args map[string]any) (string, error) {
	guid := argString(args, "user_guid")

	switch argString(args, "action") {
	case "add":
		return m.add(ctx, guid, argString(args, "key"), argString(args, "value"))
	case "clear":
		message, err := m.manager.Clear(ctx, guid)
		if err != nil {
			return "", err
		}
		return message, nil
	default:
		return "", fmt.Errorf("unknown action %q: expected 'add' or 'clear'", argString(args, "action"))
	}
}

func (m *ManageMemory) add(ctx context.Context, guid, key, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("a value is required to store a memory")
	}
	if key == "" {
		key = time.Now().UTC().Format(time.RFC3339)
	}

	scope, _ := m.manager.SelectScope(ctx, guid)
	doc, scope := m.manager.Read(ctx, scope)
	doc[key] = value
	if err := m.manager.Write(ctx, scope, doc); err != nil {
		return "", fmt.Errorf("failed to store memory: %w", err)
	}
	return fmt.Sprintf("Stored memory '%s' in %s memory.", key, scopeLabel(scope)), nil
}

func scopeLabel(scope memory.Scope) string {
	if scope.IsShared() {
		return "shared"
	}
	return "conversation"
}
