package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/insightbot/insightd/agents"
	"github.com/insightbot/insightd/llm"
	"github.com/insightbot/insightd/memory"
	"github.com/rs/zerolog"
)

// dispatchOnce runs one attempt of the dispatch state machine. A returned
// error is transient and restarts the machine from composition; terminal
// error-style outcomes (unknown agent, malformed arguments, a failing
// agent) are returned as outcomes and never retried.
func (a *Assistant) dispatchOnce(
	ctx context.Context,
	registry *agents.Registry,
	req Request,
	scope memory.Scope,
	agentLogs *[]string,
	logger zerolog.Logger,
) (Outcome, error) {
	messages := a.composeMessages(ctx, req, scope)
	tools := registry.Specs()

	for followUps := 0; followUps <= maxFollowUps; followUps++ {
		resp, err := a.callModel(ctx, messages, tools, logger)
		if err != nil {
			return Outcome{}, err
		}

		if resp.ToolCall == nil {
			return Outcome{FinalText: resp.Text, AgentLogs: *agentLogs}, nil
		}

		name := resp.ToolCall.Name
		agent, ok := registry.Get(name)
		if !ok {
			logger.Warn().Str("agent", name).Msg("Model requested unknown agent")
			return Outcome{FinalText: fmt.Sprintf("Agent '%s' does not exist", name)}, nil
		}

		args, err := parseArguments(resp.ToolCall.Arguments)
		if err != nil {
			logger.Warn().Err(err).Str("agent", name).Msg("Malformed agent arguments")
			return Outcome{FinalText: fmt.Sprintf("Error parsing parameters: %v", err)}, nil
		}
		sanitizeArguments(args)
		if agents.IsMemoryAware(name) {
			// The active scope's GUID always wins over whatever the
			// model put in the arguments.
			args["user_guid"] = scope.GUID()
		}

		logger.Info().Str("agent", name).Msg("Invoking agent")
		result, err := agent.Perform(ctx, args)
		if err != nil {
			logger.Warn().Err(err).Str("agent", name).Msg("Agent invocation failed")
			return Outcome{FinalText: fmt.Sprintf("Error performing %s: %v", name, err), AgentLogs: *agentLogs}, nil
		}
		*agentLogs = append(*agentLogs, fmt.Sprintf("Performed %s and got result: %s", name, result))

		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, ToolCall: resp.ToolCall},
			llm.NewFunctionResultMessage(resp.ToolCall.ID, name, result),
		)

		if needsFollowUp(result) {
			logger.Debug().Str("agent", name).Msg("Agent result requires a follow-up model call")
			continue
		}

		final, err := a.callModel(ctx, messages, tools, logger)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{FinalText: final.Text, AgentLogs: *agentLogs}, nil
	}

	logger.Error().Int("max_follow_ups", maxFollowUps).Msg("Follow-up loop cap reached")
	return Outcome{FinalText: UnavailableMessage, AgentLogs: *agentLogs}, nil
}

func (a *Assistant) callModel(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec, logger zerolog.Logger) (*llm.Response, error) {
	logger.Debug().Int("messages", len(messages)).Int("tools", len(tools)).Msg("Calling model")
	resp, err := a.client.Synchronous(ctx, &llm.Request{
		Model:    a.cfg.Model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	return resp, nil
}

// parseArguments parses a tool call's argument payload. Blank payloads are
// an empty argument set; malformed payloads are an explicit parse error the
// caller turns into a terminal outcome.
func parseArguments(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// sanitizeArguments replaces null argument values with empty text so agents
// never see untyped nils.
func sanitizeArguments(args map[string]any) {
	for key, value := range args {
		if value == nil {
			args[key] = ""
		}
	}
}

// needsFollowUp inspects an agent's result for the status keys that demand
// another full model call before answering: a truthy "error", a "status" of
// "incomplete", or "requires_additional_action" set. Results that are not
// JSON objects never require a follow-up.
//
// TODO: formalize this as part of the agent result contract instead of
// inferring it from ad hoc keys.
func needsFollowUp(result string) bool {
	var doc map[string]any
	if err := json.Unmarshal([]byte(result), &doc); err != nil {
		return false
	}
	if truthy(doc["error"]) {
		return true
	}
	if status, ok := doc["status"].(string); ok && status == "incomplete" {
		return true
	}
	if flag, ok := doc["requires_additional_action"].(bool); ok && flag {
		return true
	}
	return false
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	default:
		return true
	}
}
