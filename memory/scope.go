// Package memory implements the dual-scope conversation memory layered on
// the blob store: one shared document visible to every conversation, plus
// one document per user GUID.
package memory

import (
	"path"
	"regexp"
)

const (
	sharedDir  = "shared_memories"
	sharedFile = "memory.json"
	userDir    = "memory"
	userFile   = "user_memory.json"
)

// DefaultGUID is used when a request carries no user identifier.
const DefaultGUID = "c0p110t0-aaaa-bbbb-cccc-123456789abc"

// defaultGUIDs bypass strict format validation but still route to their own
// per-user blob.
var defaultGUIDs = map[string]bool{
	DefaultGUID:                            true,
	"d3fau1t0-c0p1-10t0-b0t0-111111111111": true,
}

// Case-insensitive: clients send GUIDs in either case.
var guidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsValidGUID reports whether s is a well-formed user GUID or one of the
// pre-provisioned default GUIDs.
func IsValidGUID(s string) bool {
	return defaultGUIDs[s] || guidPattern.MatchString(s)
}

// IsGUIDShaped reports whether s matches the strict UUID pattern. Unlike
// IsValidGUID it does not admit the default GUID allow-list.
func IsGUIDShaped(s string) bool {
	return guidPattern.MatchString(s)
}

// Scope identifies which memory document reads and writes target: the
// shared document or one user's document. The zero value is the shared
// scope. Scope is a request-local value threaded through every call; the
// manager holds no current-scope state.
type Scope struct {
	guid string
}

// Shared is the shared memory scope.
var Shared = Scope{}

// UserScope returns the scope for the given user GUID.
func UserScope(guid string) Scope {
	return Scope{guid: guid}
}

// IsShared reports whether the scope targets the shared document.
func (s Scope) IsShared() bool { return s.guid == "" }

// GUID returns the user GUID, or "" for the shared scope.
func (s Scope) GUID() string { return s.guid }

// Dir returns the blob directory backing this scope.
func (s Scope) Dir() string {
	if s.IsShared() {
		return sharedDir
	}
	return path.Join(userDir, s.guid)
}

// File returns the blob name backing this scope.
func (s Scope) File() string {
	if s.IsShared() {
		return sharedFile
	}
	return userFile
}

// String implements fmt.Stringer.
func (s Scope) String() string {
	if s.IsShared() {
		return "shared"
	}
	return "user:" + s.guid
}
