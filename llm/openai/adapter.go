package openai

import (
	"github.com/insightbot/insightd/llm"
	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
)

// ToOpenAIMessages converts llm.Messages to OpenAI chat message format.
func ToOpenAIMessages(msgs []llm.Message) []openai.ChatCompletionMessage {
	return lo.Map(msgs, func(msg llm.Message, _ int) openai.ChatCompletionMessage {
		return ToOpenAIMessage(msg)
	})
}

// ToOpenAIMessage converts a single llm.Message to OpenAI format.
func ToOpenAIMessage(msg llm.Message) openai.ChatCompletionMessage {
	switch msg.Role {
	case llm.RoleSystem:
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: msg.Content,
		}
	case llm.RoleAssistant:
		out := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: msg.Content,
		}
		if msg.ToolCall != nil {
			out.ToolCalls = []openai.ToolCall{{
				ID:   msg.ToolCall.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      msg.ToolCall.Name,
					Arguments: msg.ToolCall.Arguments,
				},
			}}
		}
		return out
	case llm.RoleFunction:
		out := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleTool,
			Content: msg.Content,
			Name:    msg.Name,
		}
		if msg.ToolCall != nil {
			out.ToolCallID = msg.ToolCall.ID
		}
		return out
	default:
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: msg.Content,
		}
	}
}

// FromOpenAIMessage converts a response message into the provider-neutral
// form, carrying over at most one tool call.
func FromOpenAIMessage(msg openai.ChatCompletionMessage) *llm.Response {
	resp := &llm.Response{Text: msg.Content}
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		resp.ToolCall = &llm.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}
	return resp
}

// ToOpenAITools converts llm.ToolSpecs to the OpenAI tool declaration shape.
func ToOpenAITools(specs []llm.ToolSpec) []openai.Tool {
	return lo.Map(specs, func(spec llm.ToolSpec, _ int) openai.Tool {
		return ToOpenAITool(&spec)
	})
}

// ToOpenAITool converts a single llm.ToolSpec to an OpenAI Tool.
func ToOpenAITool(spec *llm.ToolSpec) openai.Tool {
	schemaType := spec.Schema.Type
	if schemaType == "" {
		schemaType = "object"
	}
	properties := spec.Schema.Properties
	if properties == nil {
		properties = map[string]any{}
	}
	required := spec.Schema.Required
	if required == nil {
		required = []string{}
	}

	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters: map[string]any{
				"type":       schemaType,
				"properties": properties,
				"required":   required,
			},
		},
	}
}
