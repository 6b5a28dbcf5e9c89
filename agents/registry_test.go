package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/insightbot/insightd/blobstore"
	"github.com/insightbot/insightd/memory"
	"github.com/rs/zerolog"
)

func setupLoader(t *testing.T) (*Loader, *blobstore.MemStore) {
	t.Helper()
	store := blobstore.NewMemStore()
	manager := memory.NewManager(store, zerolog.Nop())
	if err := manager.EnsureShared(context.Background()); err != nil {
		t.Fatalf("ensure shared: %v", err)
	}
	return NewLoader(store, manager, zerolog.Nop()), store
}

const greeterDefinition = `{
    "name": "Greeter",
    "description": "Greets the given person.",
    "parameters": {
        "type": "object",
        "properties": {"who": {"type": "string", "description": "Name to greet."}},
        "required": ["who"]
    },
    "program": "\"Hello, \" + .who + \"!\""
}`

func TestDiscover_StaticAgents(t *testing.T) {
	loader, _ := setupLoader(t)
	reg := loader.Discover(context.Background())

	for _, name := range []string{"Echo", "ContextMemory", "ManageMemory", "LearnNewAgent"} {
		if _, ok := reg.Get(name); !ok {
			t.Errorf("static agent %s not registered", name)
		}
	}
	if reg.Len() != 4 {
		t.Errorf("Len() = %d, want 4", reg.Len())
	}
}

func TestDiscover_DynamicAgent(t *testing.T) {
	loader, store := setupLoader(t)
	ctx := context.Background()

	if err := store.WriteFile(ctx, "agents", "Greeter_agent.json", greeterDefinition); err != nil {
		t.Fatalf("seed definition: %v", err)
	}

	reg := loader.Discover(ctx)
	agent, ok := reg.Get("Greeter")
	if !ok {
		t.Fatal("dynamic agent not registered")
	}

	result, err := agent.Perform(ctx, map[string]any{"who": "Ada"})
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if result != "Hello, Ada!" {
		t.Errorf("result = %q", result)
	}
}

func TestDiscover_BrokenDefinitionIsSkipped(t *testing.T) {
	loader, store := setupLoader(t)
	ctx := context.Background()

	if err := store.WriteFile(ctx, "agents", "Broken_agent.json", "{not json"); err != nil {
		t.Fatalf("seed broken: %v", err)
	}
	if err := store.WriteFile(ctx, "agents", "Greeter_agent.json", greeterDefinition); err != nil {
		t.Fatalf("seed good: %v", err)
	}

	reg := loader.Discover(ctx)
	if _, ok := reg.Get("Broken"); ok {
		t.Error("broken definition should not be registered")
	}
	if _, ok := reg.Get("Greeter"); !ok {
		t.Error("healthy definition should survive a broken sibling")
	}
}

func TestDiscover_NonAgentBlobsIgnored(t *testing.T) {
	loader, store := setupLoader(t)
	ctx := context.Background()

	if err := store.WriteFile(ctx, "agents", "readme.txt", "not an agent"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := loader.Discover(ctx)
	if reg.Len() != 4 {
		t.Errorf("Len() = %d, want only the static set", reg.Len())
	}
}

func TestRegistry_CollisionMostRecentWins(t *testing.T) {
	loader, store := setupLoader(t)
	ctx := context.Background()

	// A dynamic definition that shadows the static Echo agent.
	shadow := `{
        "name": "Echo",
        "description": "Shadowed echo.",
        "parameters": {"type": "object", "properties": {}, "required": []},
        "program": "\"shadowed\""
    }`
	if err := store.WriteFile(ctx, "agents", "Echo_agent.json", shadow); err != nil {
		t.Fatalf("seed shadow: %v", err)
	}

	reg := loader.Discover(ctx)
	agent, ok := reg.Get("Echo")
	if !ok {
		t.Fatal("Echo missing")
	}
	result, err := agent.Perform(ctx, map[string]any{"text": "ignored"})
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if result != "shadowed" {
		t.Errorf("result = %q, want the dynamic definition to win", result)
	}
	if got := len(reg.Specs()); got != reg.Len() {
		t.Errorf("Specs() length %d != Len() %d after collision", got, reg.Len())
	}
}

func TestPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("sanitizes the name", func(t *testing.T) {
		loader, store := setupLoader(t)
		published, err := loader.Publish(ctx, "My Greeter!", greeterDefinition)
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
		if published != "MyGreeter" {
			t.Errorf("published name = %q", published)
		}
		content, err := store.ReadFile(ctx, "agents", "MyGreeter_agent.json")
		if err != nil {
			t.Fatalf("definition not stored: %v", err)
		}
		if !strings.Contains(content, `"name": "MyGreeter"`) {
			t.Errorf("stored definition did not adopt sanitized name: %s", content)
		}
	})

	t.Run("rejects names with no alphanumerics", func(t *testing.T) {
		loader, _ := setupLoader(t)
		if _, err := loader.Publish(ctx, "!!!", greeterDefinition); err == nil {
			t.Error("expected error for unsanitizable name")
		}
	})

	t.Run("rejects definitions with bad programs", func(t *testing.T) {
		loader, _ := setupLoader(t)
		bad := `{"name": "Bad", "description": "", "parameters": {"type": "object"}, "program": ".foo |"}`
		if _, err := loader.Publish(ctx, "Bad", bad); err == nil {
			t.Error("expected error for unparseable program")
		}
	})

	t.Run("published agent is discovered", func(t *testing.T) {
		loader, _ := setupLoader(t)
		if _, err := loader.Publish(ctx, "Greeter", greeterDefinition); err != nil {
			t.Fatalf("publish: %v", err)
		}
		reg := loader.Discover(ctx)
		if _, ok := reg.Get("Greeter"); !ok {
			t.Error("published agent not discovered on next pass")
		}
	})
}

func TestSanitizeAgentName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"WeatherBot", "WeatherBot"},
		{"weather bot 2", "weatherbot2"},
		{"../../etc/passwd", "etcpasswd"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := sanitizeAgentName(tt.in); got != tt.want {
			t.Errorf("sanitizeAgentName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
