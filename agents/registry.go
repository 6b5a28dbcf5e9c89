package agents

import (
	"context"
	"strings"

	"github.com/insightbot/insightd/blobstore"
	"github.com/insightbot/insightd/llm"
	"github.com/insightbot/insightd/memory"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	agentsDir   = "agents"
	agentSuffix = "_agent.json"
)

// Registry maps agent names to handlers for a single request. It is built
// fresh per request by a Loader and never shared across requests.
type Registry struct {
	agents map[string]Agent
	order  []string
	logger zerolog.Logger
}

func newRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		agents: make(map[string]Agent),
		logger: logger,
	}
}

// add registers an agent. On a name collision the most recently loaded
// definition wins.
func (r *Registry) add(agent Agent) {
	name := agent.Name()
	if _, exists := r.agents[name]; !exists {
		r.order = append(r.order, name)
	} else {
		r.logger.Debug().Str("agent", name).Msg("Agent name collision, most recent definition wins")
	}
	r.agents[name] = agent
}

// Get returns the agent registered under name, if any.
func (r *Registry) Get(name string) (Agent, bool) {
	agent, ok := r.agents[name]
	return agent, ok
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.agents)
}

// Specs returns every registered agent's tool declaration in load order.
func (r *Registry) Specs() []llm.ToolSpec {
	return lo.Map(r.order, func(name string, _ int) llm.ToolSpec {
		return r.agents[name].Spec()
	})
}

// Loader discovers agents for each request: the compiled-in set first, then
// dynamic definitions from the blob store.
type Loader struct {
	store   blobstore.Store
	manager *memory.Manager
	logger  zerolog.Logger
}

// NewLoader creates a Loader.
func NewLoader(store blobstore.Store, manager *memory.Manager, logger zerolog.Logger) *Loader {
	return &Loader{
		store:   store,
		manager: manager,
		logger:  logger.With().Str("component", "agent_registry").Logger(),
	}
}

// Discover builds the combined registry. Discovery is best-effort: any
// single dynamic definition failing to load is logged and skipped, never
// aborting the rest.
func (l *Loader) Discover(ctx context.Context) *Registry {
	reg := newRegistry(l.logger)

	for _, agent := range l.staticAgents() {
		reg.add(agent)
	}

	names, err := l.store.List(ctx, agentsDir)
	if err != nil {
		l.logger.Error().Err(err).Msg("Error listing dynamic agents")
		return reg
	}

	for _, name := range names {
		if !strings.HasSuffix(name, agentSuffix) {
			continue
		}
		source, err := l.store.ReadFile(ctx, agentsDir, name)
		if err != nil {
			l.logger.Error().Err(err).Str("file", name).Msg("Error fetching dynamic agent")
			continue
		}
		agent, err := compileDynamicAgent(source)
		if err != nil {
			l.logger.Error().Err(err).Str("file", name).Msg("Error loading dynamic agent, skipping")
			continue
		}
		reg.add(agent)
	}

	l.logger.Debug().Int("agents", reg.Len()).Msg("Agent discovery complete")
	return reg
}

func (l *Loader) staticAgents() []Agent {
	return []Agent{
		NewEcho(),
		NewContextMemory(l.manager),
		NewManageMemory(l.manager),
		NewLearnNewAgent(l),
	}
}

// Publish validates a dynamic agent definition and stores it under the
// sanitized name for pickup by the next discovery. It does not hot-load the
// agent into any existing registry.
func (l *Loader) Publish(ctx context.Context, name, source string) (string, error) {
	sanitized := sanitizeAgentName(name)
	if sanitized == "" {
		return "", errInvalidAgentName
	}

	normalized, err := normalizeDefinition(sanitized, source)
	if err != nil {
		return "", err
	}

	l.store.EnsureDirectory(ctx, agentsDir)
	if err := l.store.WriteFile(ctx, agentsDir, sanitized+agentSuffix, normalized); err != nil {
		l.logger.Error().Err(err).Str("agent", sanitized).Msg("Error writing agent definition")
		return "", err
	}
	l.logger.Info().Str("agent", sanitized).Msg("Published dynamic agent definition")
	return sanitized, nil
}

// sanitizeAgentName reduces a requested agent name to an identifier-safe
// alphanumeric form.
func sanitizeAgentName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
