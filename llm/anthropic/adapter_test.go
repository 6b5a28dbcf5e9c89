package anthropic

import (
	"testing"

	"github.com/insightbot/insightd/llm"
	"github.com/rs/zerolog"
)

func TestSplitSystem(t *testing.T) {
	msgs := []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, "be terse"),
		llm.NewTextMessage(llm.RoleUser, "hi"),
		llm.NewTextMessage(llm.RoleAssistant, "hello"),
	}

	system, rest := SplitSystem(msgs)
	if system != "be terse" {
		t.Errorf("system = %q", system)
	}
	if len(rest) != 2 {
		t.Fatalf("rest = %d messages", len(rest))
	}
	if rest[0].Role != llm.RoleUser || rest[1].Role != llm.RoleAssistant {
		t.Errorf("rest roles = %q, %q", rest[0].Role, rest[1].Role)
	}
}

func TestSplitSystem_MultipleSystemTurnsJoined(t *testing.T) {
	msgs := []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, "one"),
		llm.NewTextMessage(llm.RoleSystem, "two"),
	}

	system, rest := SplitSystem(msgs)
	if system != "one\ntwo" {
		t.Errorf("system = %q", system)
	}
	if len(rest) != 0 {
		t.Errorf("rest = %v", rest)
	}
}

func TestToMessageParam_Roles(t *testing.T) {
	tests := []struct {
		name     string
		msg      llm.Message
		wantRole string
	}{
		{name: "user", msg: llm.NewTextMessage(llm.RoleUser, "hi"), wantRole: "user"},
		{name: "assistant", msg: llm.NewTextMessage(llm.RoleAssistant, "hello"), wantRole: "assistant"},
		{name: "function result rides a user turn", msg: llm.NewFunctionResultMessage("call_1", "Echo", "hi"), wantRole: "user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToMessageParam(tt.msg)
			if string(got.Role) != tt.wantRole {
				t.Errorf("Role = %q, want %q", got.Role, tt.wantRole)
			}
			if len(got.Content) == 0 {
				t.Error("message has no content blocks")
			}
		})
	}
}

func TestToMessageParam_AssistantToolCall(t *testing.T) {
	msg := llm.Message{
		Role:     llm.RoleAssistant,
		Content:  "Let me check.",
		ToolCall: &llm.ToolCall{ID: "call_1", Name: "Echo", Arguments: `{"text": "hi"}`},
	}

	got := ToMessageParam(msg)
	if len(got.Content) != 2 {
		t.Fatalf("content blocks = %d, want text plus tool use", len(got.Content))
	}
	if got.Content[1].OfToolUse == nil {
		t.Fatal("second block is not a tool use block")
	}
	if got.Content[1].OfToolUse.ID != "call_1" || got.Content[1].OfToolUse.Name != "Echo" {
		t.Errorf("tool use block = %+v", got.Content[1].OfToolUse)
	}
}

func TestToToolUnionParam(t *testing.T) {
	spec := llm.ToolSpec{
		Name:        "Echo",
		Description: "Echoes text.",
		Schema: llm.ToolSchema{
			Type:       "object",
			Properties: map[string]any{"text": map[string]any{"type": "string"}},
			Required:   []string{"text"},
		},
	}

	got := ToToolUnionParam(&spec)
	if got.OfTool == nil {
		t.Fatal("OfTool is nil")
	}
	if got.OfTool.Name != "Echo" {
		t.Errorf("Name = %q", got.OfTool.Name)
	}
	if len(got.OfTool.InputSchema.Required) != 1 {
		t.Errorf("Required = %v", got.OfTool.InputSchema.Required)
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New("", "claude-sonnet-4-0", zerolog.Nop()); err == nil {
		t.Error("expected error for empty api key")
	}
}
