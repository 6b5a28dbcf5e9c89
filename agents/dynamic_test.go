package agents

import (
	"context"
	"strings"
	"testing"
)

func TestCompileDynamicAgent(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{
			name:   "valid definition",
			source: greeterDefinition,
		},
		{
			name:    "malformed json",
			source:  "{not json",
			wantErr: "malformed agent definition",
		},
		{
			name:    "missing name",
			source:  `{"description": "x", "program": "."}`,
			wantErr: "missing a name",
		},
		{
			name:    "missing program",
			source:  `{"name": "X", "description": "x"}`,
			wantErr: "missing a program",
		},
		{
			name:    "unparseable program",
			source:  `{"name": "X", "program": ".foo |"}`,
			wantErr: "failed to parse agent program",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent, err := compileDynamicAgent(tt.source)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if agent.Name() == "" {
					t.Error("compiled agent has no name")
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestDynamicAgent_Perform(t *testing.T) {
	ctx := context.Background()

	t.Run("string output returned verbatim", func(t *testing.T) {
		agent := mustCompile(t, `{"name": "X", "program": "\"plain text\""}`)
		got, err := agent.Perform(ctx, nil)
		if err != nil {
			t.Fatalf("perform: %v", err)
		}
		if got != "plain text" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("structured output serialized as json", func(t *testing.T) {
		agent := mustCompile(t, `{"name": "X", "program": "{doubled: (.n * 2)}"}`)
		got, err := agent.Perform(ctx, map[string]any{"n": 21.0})
		if err != nil {
			t.Fatalf("perform: %v", err)
		}
		if got != `{"doubled":42}` {
			t.Errorf("got %q", got)
		}
	})

	t.Run("program error surfaces as error", func(t *testing.T) {
		agent := mustCompile(t, `{"name": "X", "program": "error(\"boom\")"}`)
		_, err := agent.Perform(ctx, nil)
		if err == nil || !strings.Contains(err.Error(), "X failed") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("spec defaults parameter type to object", func(t *testing.T) {
		agent := mustCompile(t, `{"name": "X", "program": "."}`)
		if agent.Spec().Schema.Type != "object" {
			t.Errorf("schema type = %q", agent.Spec().Schema.Type)
		}
	})
}

func mustCompile(t *testing.T, source string) *dynamicAgent {
	t.Helper()
	agent, err := compileDynamicAgent(source)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return agent
}
