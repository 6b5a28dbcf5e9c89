package agents

import (
	"context"
	"strings"
	"testing"
)

const memTestGUID = "12345678-abcd-abcd-abcd-123456789abc"

func TestManageMemory_AddAndRecall(t *testing.T) {
	loader, _ := setupLoader(t)
	ctx := context.Background()

	manage := NewManageMemory(loader.manager)
	result, err := manage.Perform(ctx, map[string]any{
		"action":    "add",
		"key":       "favorite_color",
		"value":     "teal",
		"user_guid": memTestGUID,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(result, "favorite_color") {
		t.Errorf("unexpected add result: %q", result)
	}

	recall := NewContextMemory(loader.manager)
	got, err := recall.Perform(ctx, map[string]any{"user_guid": memTestGUID})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if !strings.Contains(got, "favorite_color: teal") {
		t.Errorf("recall = %q", got)
	}
}

func TestManageMemory_AddDefaultsKeyToTimestamp(t *testing.T) {
	loader, _ := setupLoader(t)
	ctx := context.Background()

	manage := NewManageMemory(loader.manager)
	result, err := manage.Perform(ctx, map[string]any{
		"action":    "add",
		"value":     "remember this",
		"user_guid": memTestGUID,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(result, "Stored memory") {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestManageMemory_AddRequiresValue(t *testing.T) {
	loader, _ := setupLoader(t)
	manage := NewManageMemory(loader.manager)

	if _, err := manage.Perform(context.Background(), map[string]any{"action": "add"}); err == nil {
		t.Error("expected error when value is missing")
	}
}

func TestManageMemory_Clear(t *testing.T) {
	loader, _ := setupLoader(t)
	ctx := context.Background()

	manage := NewManageMemory(loader.manager)
	if _, err := manage.Perform(ctx, map[string]any{
		"action": "add", "key": "k", "value": "v", "user_guid": memTestGUID,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := manage.Perform(ctx, map[string]any{"action": "clear", "user_guid": memTestGUID})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.Contains(result, "cleared successfully") {
		t.Errorf("clear result = %q", result)
	}

	recall := NewContextMemory(loader.manager)
	got, err := recall.Perform(ctx, map[string]any{"user_guid": memTestGUID})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if got != "No specific context memory available." {
		t.Errorf("recall after clear = %q", got)
	}
}

func TestManageMemory_UnknownAction(t *testing.T) {
	loader, _ := setupLoader(t)
	manage := NewManageMemory(loader.manager)

	if _, err := manage.Perform(context.Background(), map[string]any{"action": "destroy"}); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestContextMemory_EmptyMessages(t *testing.T) {
	loader, _ := setupLoader(t)
	ctx := context.Background()
	recall := NewContextMemory(loader.manager)

	t.Run("shared", func(t *testing.T) {
		got, err := recall.Perform(ctx, map[string]any{})
		if err != nil {
			t.Fatalf("recall: %v", err)
		}
		if got != "No shared context memory available." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("user", func(t *testing.T) {
		got, err := recall.Perform(ctx, map[string]any{"user_guid": memTestGUID})
		if err != nil {
			t.Fatalf("recall: %v", err)
		}
		if got != "No specific context memory available." {
			t.Errorf("got %q", got)
		}
	})
}

func TestContextMemory_MalformedGUIDFallsBackToShared(t *testing.T) {
	loader, _ := setupLoader(t)
	ctx := context.Background()
	recall := NewContextMemory(loader.manager)

	got, err := recall.Perform(ctx, map[string]any{"user_guid": "not-a-guid"})
	if err != nil {
		t.Fatalf("recall should degrade, not fail: %v", err)
	}
	if got != "No shared context memory available." {
		t.Errorf("got %q, want the shared-scope empty message", got)
	}
}

func TestContextMemory_FullRecall(t *testing.T) {
	loader, _ := setupLoader(t)
	ctx := context.Background()

	manage := NewManageMemory(loader.manager)
	if _, err := manage.Perform(ctx, map[string]any{
		"action": "add", "key": "k", "value": "v", "user_guid": memTestGUID,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	recall := NewContextMemory(loader.manager)
	got, err := recall.Perform(ctx, map[string]any{"user_guid": memTestGUID, "full_recall": true})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if !strings.Contains(got, `"k": "v"`) {
		t.Errorf("full recall should render the JSON document, got %q", got)
	}
}

func TestLearnNewAgent(t *testing.T) {
	loader, _ := setupLoader(t)
	ctx := context.Background()
	learn := NewLearnNewAgent(loader)

	t.Run("success", func(t *testing.T) {
		result, err := learn.Perform(ctx, map[string]any{
			"agent_name": "Greeter",
			"definition": greeterDefinition,
		})
		if err != nil {
			t.Fatalf("perform: %v", err)
		}
		if result != "Successfully created new agent: Greeter" {
			t.Errorf("result = %q", result)
		}
	})

	t.Run("missing arguments reported as text", func(t *testing.T) {
		result, err := learn.Perform(ctx, map[string]any{"agent_name": "Greeter"})
		if err != nil {
			t.Fatalf("perform: %v", err)
		}
		if result != "Error: Both agent_name and definition are required" {
			t.Errorf("result = %q", result)
		}
	})

	t.Run("bad definition reported as text", func(t *testing.T) {
		result, err := learn.Perform(ctx, map[string]any{
			"agent_name": "Bad",
			"definition": "{not json",
		})
		if err != nil {
			t.Fatalf("perform: %v", err)
		}
		if !strings.HasPrefix(result, "Failed to create agent: Bad") {
			t.Errorf("result = %q", result)
		}
	})
}

func TestEcho(t *testing.T) {
	echo := NewEcho()
	got, err := echo.Perform(context.Background(), map[string]any{"text": "hello"})
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q", got)
	}
}
