package llm

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	// RoleFunction carries the textual result of an agent invocation back
	// to the model.
	RoleFunction MessageRole = "function"
)

// Message represents a single conversation turn. Content is always plain
// text; structured payloads are serialized before they reach this type.
type Message struct {
	Role    MessageRole
	Content string
	// Name is the agent name for RoleFunction messages.
	Name string
	// ToolCall is set on assistant messages that requested an agent
	// invocation instead of answering directly.
	ToolCall *ToolCall
}

// ToolCall is a model request to invoke a named agent with JSON arguments.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON text as returned by the model
}

// ToolSpec declares an agent to the model in the tool-calling contract.
type ToolSpec struct {
	Name        string
	Description string
	Schema      ToolSchema
}

// ToolSchema is the JSON schema for an agent's named parameters.
type ToolSchema struct {
	Type       string
	Properties map[string]any
	Required   []string
}

// Request is a provider-neutral chat completion request.
type Request struct {
	Model     string
	Messages  []Message
	Tools     []ToolSpec
	MaxTokens int
}

// Response is a provider-neutral chat completion response. ToolCall is nil
// for direct answers.
type Response struct {
	Text     string
	ToolCall *ToolCall
}

// NewTextMessage creates a message with plain text content.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{Role: role, Content: text}
}

// NewFunctionResultMessage creates a function-result message for an agent
// invocation.
func NewFunctionResultMessage(callID, name, result string) Message {
	return Message{Role: RoleFunction, Content: result, Name: name, ToolCall: &ToolCall{ID: callID, Name: name}}
}
