package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/insightbot/insightd/llm"
	"github.com/insightbot/insightd/memory"
)

var labeledGUIDPattern = regexp.MustCompile(`(?i)^guid[:=\s]+([0-9a-f-]{36})$`)

// extractGUID returns the GUID when text consists of nothing but a GUID
// (optionally labeled "guid: <value>"), or "" otherwise.
func extractGUID(text string) string {
	trimmed := strings.TrimSpace(text)
	if memory.IsGUIDShaped(trimmed) {
		return trimmed
	}
	if m := labeledGUIDPattern.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	return ""
}

// guidFromHistory returns the GUID when the first historical turn is a user
// turn whose content is exactly a GUID. Such turns are out-of-band
// context-selection signals, not conversation.
func guidFromHistory(history []Turn) string {
	if len(history) == 0 {
		return ""
	}
	first := history[0]
	if first.Role != "user" {
		return ""
	}
	content := strings.TrimSpace(coerceContent(first.Content))
	if memory.IsGUIDShaped(content) {
		return content
	}
	return ""
}

// coerceContent renders a turn's content as text regardless of the payload
// shape the caller sent.
func coerceContent(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		text, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(text)
	}
}

// composeMessages builds the ordered message sequence: the system prompt
// embedding both memory snapshots, the prior turns (minus a GUID-only first
// turn), then the new user turn.
func (a *Assistant) composeMessages(ctx context.Context, req Request, scope memory.Scope) []llm.Message {
	sharedDoc, _ := a.manager.Read(ctx, memory.Shared)
	sharedSnapshot := renderMemory(sharedDoc, "No shared context memory available.")

	userSnapshot := "No specific context memory available."
	if !scope.IsShared() {
		userDoc, effective := a.manager.Read(ctx, scope)
		if !effective.IsShared() {
			userSnapshot = renderMemory(userDoc, "No specific context memory available.")
		}
	}

	messages := []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, a.systemPrompt(sharedSnapshot, userSnapshot)),
	}

	history := req.History
	if guidFromHistory(history) != "" {
		history = history[1:]
	}
	for _, turn := range history {
		messages = append(messages, llm.NewTextMessage(turnRole(turn.Role), coerceContent(turn.Content)))
	}

	return append(messages, llm.NewTextMessage(llm.RoleUser, req.UserInput))
}

func turnRole(role string) llm.MessageRole {
	switch role {
	case "assistant":
		return llm.RoleAssistant
	case "system":
		return llm.RoleSystem
	case "function":
		return llm.RoleFunction
	default:
		return llm.RoleUser
	}
}

// renderMemory renders a memory document for embedding in the system
// prompt.
func renderMemory(doc map[string]any, emptyText string) string {
	if len(doc) == 0 {
		return emptyText
	}
	content, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return emptyText
	}
	return string(content)
}

func (a *Assistant) systemPrompt(sharedSnapshot, userSnapshot string) string {
	now := time.Now().Format("Monday, January 2, 2006 at 3:04 PM")

	return fmt.Sprintf(`<identity>
You are an assistant named %s: %s. The current date and time is %s.
</identity>

<shared_memory_output>
These are memories accessible by all users of the system:
%s
</shared_memory_output>

<specific_memory_output>
These are memories specific to the current conversation:
%s
</specific_memory_output>

<context_instructions>
- <shared_memory_output> represents common knowledge shared across all conversations
- <specific_memory_output> represents specific context for the current conversation
- Apply specific context with higher precedence than shared context
- Synthesize information from both contexts for comprehensive responses
</context_instructions>

<agent_usage>
IMPORTANT: You must be honest and accurate about agent usage:
- NEVER pretend or imply you've executed an agent when you haven't actually called it
- NEVER say "using my agent" unless you are actually making a function call to that agent
- NEVER fabricate success messages about data operations that haven't occurred
- If you need to perform an action and don't have the necessary agent, say so directly
- When a user requests an action, either:
  1. Call the appropriate agent and report actual results, or
  2. Say "I don't have the capability to do that" and suggest an alternative
  3. If no details are provided besides the request to run an agent, infer the necessary input parameters from the conversation context so far
</agent_usage>

<formatting>
Format your responses using rich markdown:
- Use **bold** for emphasis
- Use `+"`code blocks`"+` for technical content
- Apply --- for horizontal rules to separate sections
- Utilize > for important quotes or callouts
- Create numbered lists with proper indentation
- Apply # ## ### headings for clear structure
</formatting>`, a.cfg.Name, a.cfg.Persona, now, sharedSnapshot, userSnapshot)
}
