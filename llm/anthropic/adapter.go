package anthropic

import (
	"encoding/json"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/insightbot/insightd/llm"
	"github.com/samber/lo"
)

// SplitSystem separates system turns (Anthropic carries the system prompt
// outside the message list) from the conversational turns.
func SplitSystem(msgs []llm.Message) (string, []llm.Message) {
	var system []string
	rest := make([]llm.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == llm.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n"), rest
}

// ToMessageParams converts llm.Messages to Anthropic MessageParams.
func ToMessageParams(msgs []llm.Message) []anthropic.MessageParam {
	return lo.Map(msgs, func(msg llm.Message, _ int) anthropic.MessageParam {
		return ToMessageParam(msg)
	})
}

// ToMessageParam converts a single llm.Message to an Anthropic MessageParam.
func ToMessageParam(msg llm.Message) anthropic.MessageParam {
	switch msg.Role {
	case llm.RoleAssistant:
		var blocks []anthropic.ContentBlockParamUnion
		if msg.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
		}
		if msg.ToolCall != nil {
			var input map[string]any
			if err := json.Unmarshal([]byte(msg.ToolCall.Arguments), &input); err != nil {
				input = map[string]any{}
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(msg.ToolCall.ID, input, msg.ToolCall.Name))
		}
		return anthropic.NewAssistantMessage(blocks...)
	case llm.RoleFunction:
		callID := msg.Name
		if msg.ToolCall != nil && msg.ToolCall.ID != "" {
			callID = msg.ToolCall.ID
		}
		return anthropic.NewUserMessage(anthropic.NewToolResultBlock(callID, msg.Content, false))
	default:
		return anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content))
	}
}

// ToToolUnionParam converts an llm.ToolSpec to an Anthropic ToolUnionParam.
func ToToolUnionParam(spec *llm.ToolSpec) anthropic.ToolUnionParam {
	toolParam := anthropic.ToolParam{
		Name:        spec.Name,
		Description: anthropic.String(spec.Description),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: spec.Schema.Properties,
			Required:   spec.Schema.Required,
		},
	}
	return anthropic.ToolUnionParam{OfTool: &toolParam}
}

// ToToolUnionParams converts a slice of llm.ToolSpecs to Anthropic ToolUnionParams.
func ToToolUnionParams(specs []llm.ToolSpec) []anthropic.ToolUnionParam {
	return lo.Map(specs, func(spec llm.ToolSpec, _ int) anthropic.ToolUnionParam {
		return ToToolUnionParam(&spec)
	})
}
