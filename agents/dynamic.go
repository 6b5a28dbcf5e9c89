package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/insightbot/insightd/llm"
	"github.com/itchyny/gojq"
)

var errInvalidAgentName = errors.New("agent name must contain at least one alphanumeric character")

// definition is the stored form of a dynamic agent: a tool declaration plus
// a jq program evaluated against the invocation arguments. The program is a
// pure transformation of the argument document; it has no access to the
// process, the store, or the network.
type definition struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Parameters  definitionSchema `json:"parameters"`
	Program     string           `json:"program"`
}

type definitionSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// dynamicAgent is a discovered dynamic definition with its compiled program.
type dynamicAgent struct {
	def  definition
	code *gojq.Code
}

// compileDynamicAgent parses and compiles a stored definition. Any failure
// (malformed JSON, missing fields, jq compile error) is returned so the
// loader can skip just this agent.
func compileDynamicAgent(source string) (*dynamicAgent, error) {
	def, code, err := parseDefinition(source)
	if err != nil {
		return nil, err
	}
	return &dynamicAgent{def: def, code: code}, nil
}

func parseDefinition(source string) (definition, *gojq.Code, error) {
	var def definition
	if err := json.Unmarshal([]byte(source), &def); err != nil {
		return definition{}, nil, fmt.Errorf("malformed agent definition: %w", err)
	}
	if def.Name == "" {
		return definition{}, nil, errors.New("agent definition is missing a name")
	}
	if def.Program == "" {
		return definition{}, nil, errors.New("agent definition is missing a program")
	}
	if def.Parameters.Type == "" {
		def.Parameters.Type = "object"
	}

	query, err := gojq.Parse(def.Program)
	if err != nil {
		return definition{}, nil, fmt.Errorf("failed to parse agent program: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return definition{}, nil, fmt.Errorf("failed to compile agent program: %w", err)
	}
	return def, code, nil
}

// normalizeDefinition validates source and returns the canonical stored
// form with the sanitized name applied.
func normalizeDefinition(name, source string) (string, error) {
	def, _, err := parseDefinition(source)
	if err != nil {
		return "", err
	}
	def.Name = name
	out, err := json.MarshalIndent(def, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize agent definition: %w", err)
	}
	return string(out), nil
}

// Name implements Agent.
func (a *dynamicAgent) Name() string { return a.def.Name }

// Spec implements Agent.
func (a *dynamicAgent) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        a.def.Name,
		Description: a.def.Description,
		Schema: llm.ToolSchema{
			Type:       a.def.Parameters.Type,
			Properties: a.def.Parameters.Properties,
			Required:   a.def.Parameters.Required,
		},
	}
}

// Perform implements Agent. The program runs against the arguments object;
// the first output is the result, coerced to text.
func (a *dynamicAgent) Perform(ctx context.Context, args map[string]any) (string, error) {
	input := map[string]any{}
	for k, v := range args {
		input[k] = v
	}

	iter := a.code.RunWithContext(ctx, input)
	v, ok := iter.Next()
	if !ok {
		return "", fmt.Errorf("agent %s produced no output", a.def.Name)
	}
	if err, isErr := v.(error); isErr {
		return "", fmt.Errorf("agent %s failed: %w", a.def.Name, err)
	}

	switch out := v.(type) {
	case string:
		return out, nil
	default:
		text, err := json.Marshal(out)
		if err != nil {
			return "", fmt.Errorf("agent %s produced an unserializable result: %w", a.def.Name, err)
		}
		return string(text), nil
	}
}
