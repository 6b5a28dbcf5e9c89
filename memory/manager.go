package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/insightbot/insightd/blobstore"
	"github.com/rs/zerolog"
)

// ErrInvalidGUID is returned when a user identifier fails format validation.
var ErrInvalidGUID = errors.New("invalid GUID format")

// Manager routes memory reads and writes to the blob backing a Scope.
// A single Manager serves all requests concurrently; scope selection is
// carried by the Scope values it returns, never by Manager state.
type Manager struct {
	store  blobstore.Store
	logger zerolog.Logger
}

// NewManager creates a Manager on top of the given store.
func NewManager(store blobstore.Store, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger.With().Str("component", "memory").Logger(),
	}
}

// EnsureShared idempotently creates the shared memory blob with an empty
// object if it does not exist.
func (m *Manager) EnsureShared(ctx context.Context) error {
	m.store.EnsureDirectory(ctx, sharedDir)
	exists, err := m.store.Exists(ctx, sharedDir, sharedFile)
	if err != nil {
		return fmt.Errorf("failed to check shared memory blob: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.store.WriteFile(ctx, sharedDir, sharedFile, "{}"); err != nil {
		return fmt.Errorf("failed to create shared memory blob: %w", err)
	}
	m.logger.Info().Msg("Created shared memory blob")
	return nil
}

// SelectScope resolves a user identifier to a memory scope. An empty guid
// selects the shared scope. A malformed guid logs a warning and degrades to
// the shared scope, returning ErrInvalidGUID. A well-formed guid lazily
// creates the per-user blob and returns its scope; if creation fails the
// shared scope is returned along with the error so the request can proceed
// unpersonalized.
func (m *Manager) SelectScope(ctx context.Context, guid string) (Scope, error) {
	if guid == "" {
		return Shared, nil
	}

	if !defaultGUIDs[guid] && !guidPattern.MatchString(guid) {
		m.logger.Warn().Str("guid", guid).Msg("Invalid GUID format, using shared memory")
		return Shared, ErrInvalidGUID
	}

	scope := UserScope(guid)
	if err := m.ensureUserBlob(ctx, scope); err != nil {
		m.logger.Error().Err(err).Str("guid", guid).Msg("Failed to set up user memory, using shared memory")
		return Shared, err
	}
	return scope, nil
}

func (m *Manager) ensureUserBlob(ctx context.Context, scope Scope) error {
	exists, err := m.store.Exists(ctx, scope.Dir(), scope.File())
	if err != nil {
		return fmt.Errorf("failed to check user memory blob: %w", err)
	}
	if exists {
		return nil
	}
	m.store.EnsureDirectory(ctx, scope.Dir())
	if err := m.store.WriteFile(ctx, scope.Dir(), scope.File(), "{}"); err != nil {
		return fmt.Errorf("failed to create user memory blob: %w", err)
	}
	m.logger.Info().Str("guid", scope.GUID()).Msg("Created new user memory blob")
	return nil
}

// Read returns the memory document for the scope. Any failure reading a
// user scope falls back transparently to the shared document; the returned
// Scope is the one that was actually read, and callers must continue with
// it rather than the scope they requested.
func (m *Manager) Read(ctx context.Context, scope Scope) (map[string]any, Scope) {
	if !scope.IsShared() {
		doc, err := m.readScope(ctx, scope)
		if err == nil {
			return doc, scope
		}
		m.logger.Warn().Err(err).Str("scope", scope.String()).Msg("User memory read failed, falling back to shared")
	}

	doc, err := m.readScope(ctx, Shared)
	if err != nil {
		m.logger.Error().Err(err).Msg("Shared memory read failed")
		if blobstore.IsNotFound(err) {
			if ensureErr := m.EnsureShared(ctx); ensureErr != nil {
				m.logger.Error().Err(ensureErr).Msg("Failed to recreate shared memory blob")
			}
		}
		return map[string]any{}, Shared
	}
	return doc, Shared
}

func (m *Manager) readScope(ctx context.Context, scope Scope) (map[string]any, error) {
	content, err := m.store.ReadFile(ctx, scope.Dir(), scope.File())
	if err != nil {
		return nil, err
	}
	return parseObject(content)
}

// parseObject parses a memory blob's text as a JSON object. Absent or blank
// content yields an empty document; malformed content is an explicit error
// so callers decide how to degrade.
func parseObject(content string) (map[string]any, error) {
	if content == "" {
		return map[string]any{}, nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("memory blob is not a JSON object: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// Write stores the document at the scope's path. A failure writing a user
// scope falls back to writing the shared document so the write is never
// dropped, though it may land in the shared scope.
func (m *Manager) Write(ctx context.Context, scope Scope, doc map[string]any) error {
	if doc == nil {
		doc = map[string]any{}
	}
	content, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize memory document: %w", err)
	}

	if !scope.IsShared() {
		writeErr := m.store.WriteFile(ctx, scope.Dir(), scope.File(), string(content))
		if writeErr == nil {
			return nil
		}
		m.logger.Warn().Err(writeErr).Str("scope", scope.String()).Msg("User memory write failed, writing to shared")
	}

	if err := m.store.WriteFile(ctx, sharedDir, sharedFile, string(content)); err != nil {
		return fmt.Errorf("failed to write shared memory: %w", err)
	}
	return nil
}

// Clear overwrites a user's memory document with an empty object. The
// shared scope can never be cleared through this operation; guid is
// required and must be well formed. The returned message describes the
// outcome for the caller's log.
func (m *Manager) Clear(ctx context.Context, guid string) (string, error) {
	if guid == "" {
		return "", errors.New("a user GUID must be provided; shared memory cannot be cleared for safety reasons")
	}

	if defaultGUIDs[guid] {
		scope := UserScope(guid)
		exists, err := m.store.Exists(ctx, scope.Dir(), scope.File())
		if err == nil && !exists {
			m.store.EnsureDirectory(ctx, scope.Dir())
			if err := m.store.WriteFile(ctx, scope.Dir(), scope.File(), "{}"); err != nil {
				return "", fmt.Errorf("error clearing memory for default GUID %q: %w", guid, err)
			}
			return fmt.Sprintf("Created empty memory for default GUID: %s", guid), nil
		}
		if err := m.store.WriteFile(ctx, scope.Dir(), scope.File(), "{}"); err != nil {
			return "", fmt.Errorf("error clearing memory for default GUID %q: %w", guid, err)
		}
		return fmt.Sprintf("Memory for default GUID '%s' has been cleared successfully.", guid), nil
	}

	if !guidPattern.MatchString(guid) {
		return "", fmt.Errorf("%w: %s; cannot clear memory", ErrInvalidGUID, guid)
	}

	scope := UserScope(guid)
	exists, err := m.store.Exists(ctx, scope.Dir(), scope.File())
	if err != nil {
		return "", fmt.Errorf("error clearing memory for GUID %q: %w", guid, err)
	}
	if !exists {
		return "", fmt.Errorf("no memory found for GUID %q", guid)
	}
	if err := m.store.WriteFile(ctx, scope.Dir(), scope.File(), "{}"); err != nil {
		return "", fmt.Errorf("error clearing memory for GUID %q: %w", guid, err)
	}
	return fmt.Sprintf("Memory for GUID '%s' has been cleared successfully.", guid), nil
}
