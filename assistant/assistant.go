// Package assistant implements the dispatch loop: it composes the
// conversation payload, calls the model, routes tool calls to registered
// agents, and retries transient failures.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/insightbot/insightd/agents"
	"github.com/insightbot/insightd/llm"
	"github.com/insightbot/insightd/memory"
	"github.com/rs/zerolog"
)

const (
	// UnavailableMessage is returned after retries are exhausted.
	UnavailableMessage = "Service temporarily unavailable. Please try again later."

	// memoryLoadedMessage answers a GUID-only prompt, which selects a
	// conversation's memory without asking the model anything.
	memoryLoadedMessage = "I've successfully loaded your conversation memory. How can I assist you today?"

	// maxFollowUps caps how many times an agent result may demand another
	// full model call within one attempt.
	maxFollowUps = 10
)

// Config holds the dispatch loop's tunables.
type Config struct {
	Name       string        // assistant display name
	Persona    string        // persona description embedded in the system prompt
	Model      string        // model identifier passed to the LLM client
	MaxRetries int           // total attempts for the whole state machine
	RetryDelay time.Duration // fixed wait between attempts
}

// Request is one inbound chat turn.
type Request struct {
	UserInput string
	History   []Turn
	UserGUID  string
}

// Turn is a prior conversation turn. Content tolerates structured payloads;
// it is coerced to text during composition.
type Turn struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Outcome is the terminal result of one dispatch.
type Outcome struct {
	FinalText string
	AgentLogs []string
	UserGUID  string
}

// Assistant dispatches chat requests. It holds no per-request state; the
// memory scope for each request is resolved into an explicit value and
// threaded through every call.
type Assistant struct {
	cfg     Config
	client  llm.Client
	manager *memory.Manager
	logger  zerolog.Logger
}

// New creates an Assistant.
func New(cfg Config, client llm.Client, manager *memory.Manager, logger zerolog.Logger) *Assistant {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Assistant{
		cfg:     cfg,
		client:  client,
		manager: manager,
		logger:  logger.With().Str("component", "assistant").Logger(),
	}
}

// Respond runs the dispatch state machine for one request against a freshly
// discovered registry. Transient failures restart the machine from
// composition with a fixed backoff; when attempts are exhausted the fixed
// unavailability message is returned. The error is non-nil only when the
// context is done.
func (a *Assistant) Respond(ctx context.Context, registry *agents.Registry, req Request) (Outcome, error) {
	requestID := uuid.NewString()
	logger := a.logger.With().Str("request_id", requestID).Logger()

	guid := a.resolveGUID(req)
	scope, err := a.manager.SelectScope(ctx, guid)
	if err != nil {
		logger.Warn().Err(err).Str("guid", guid).Msg("Scope selection degraded to shared memory")
	}

	// A bare-GUID prompt exists purely to select the conversation's
	// memory; it is never sent to the model. Labeled forms ("guid: ...")
	// still select the scope but the prompt goes to the model as usual.
	if memory.IsGUIDShaped(strings.TrimSpace(req.UserInput)) {
		return Outcome{FinalText: memoryLoadedMessage, UserGUID: guid}, nil
	}

	var outcome Outcome

	operation := func() error {
		// Each attempt restarts the machine from composition, so its
		// log starts fresh; only the terminal attempt's log survives.
		var agentLogs []string
		result, err := a.dispatchOnce(ctx, registry, req, scope, &agentLogs, logger)
		if err != nil {
			logger.Warn().Err(err).Dur("retry_delay", a.cfg.RetryDelay).Msg("Dispatch attempt failed, will retry")
			return err
		}
		outcome = result
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(a.cfg.RetryDelay), uint64(a.cfg.MaxRetries-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if ctx.Err() != nil {
			return Outcome{FinalText: UnavailableMessage, UserGUID: guid}, ctx.Err()
		}
		logger.Error().Err(err).Int("max_retries", a.cfg.MaxRetries).Msg("Max retries reached")
		return Outcome{FinalText: UnavailableMessage, UserGUID: guid}, nil
	}

	outcome.UserGUID = guid
	return outcome, nil
}

// resolveGUID picks the user identifier for this request: the explicit
// request field, then a GUID-only first history turn, then a GUID-only
// prompt, then the default GUID.
func (a *Assistant) resolveGUID(req Request) string {
	if req.UserGUID != "" {
		return req.UserGUID
	}
	if guid := guidFromHistory(req.History); guid != "" {
		return guid
	}
	if guid := extractGUID(req.UserInput); guid != "" {
		return guid
	}
	return memory.DefaultGUID
}
