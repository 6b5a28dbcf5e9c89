// Package agents implements the capability handlers the model can invoke
// through tool calling, and the registry that discovers them. Static agents
// are compiled in; dynamic agents are JSON definitions fetched from the
// blob store whose body is a gojq program evaluated over the invocation
// arguments.
package agents

import (
	"context"

	"github.com/insightbot/insightd/llm"
)

// Agent is a named capability unit invocable with structured arguments,
// returning text. Agents are constructed fresh for every registry build and
// discarded when the request completes.
type Agent interface {
	// Name returns the unique identifier the model invokes this agent by.
	Name() string

	// Spec returns the tool declaration shown to the model.
	Spec() llm.ToolSpec

	// Perform executes the agent with named arguments and returns its
	// textual result.
	Perform(ctx context.Context, args map[string]any) (string, error)
}

// memoryAwareAgents receive the active user GUID injected into their
// arguments by the dispatch loop, overriding any caller-supplied value.
var memoryAwareAgents = map[string]bool{
	"ContextMemory": true,
	"ManageMemory":  true,
}

// IsMemoryAware reports whether the named agent receives the active user
// GUID from the dispatch loop.
func IsMemoryAware(name string) bool {
	return memoryAwareAgents[name]
}

// argString extracts a string argument, tolerating missing or non-string
// values.
func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// argBool extracts a boolean argument, tolerating missing values and the
// string forms models sometimes produce.
func argBool(args map[string]any, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "True"
	default:
		return false
	}
}
