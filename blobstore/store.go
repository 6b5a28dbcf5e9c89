// Package blobstore provides the remote file abstraction insightd persists
// conversation memory and dynamic agent definitions in. Paths are grouped
// into directories; every blob is addressed by (directory, name).
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a blob does not exist at the requested path.
var ErrNotFound = errors.New("blob not found")

// Store is a hierarchical key-value file store within a single container.
// Implementations must be safe for concurrent use.
type Store interface {
	// ReadFile returns the content of the blob at dir/name.
	// Returns ErrNotFound if no blob exists at that path.
	ReadFile(ctx context.Context, dir, name string) (string, error)

	// WriteFile stores content at dir/name, creating or overwriting.
	WriteFile(ctx context.Context, dir, name, content string) error

	// Exists reports whether a blob exists at dir/name.
	Exists(ctx context.Context, dir, name string) (bool, error)

	// List returns the names of all blobs directly under dir.
	List(ctx context.Context, dir string) ([]string, error)

	// Delete removes the blob at dir/name. Deleting a missing blob is not
	// an error.
	Delete(ctx context.Context, dir, name string) error

	// EnsureDirectory idempotently prepares dir for writes. It returns
	// false on failure rather than an error; failures are logged by the
	// implementation.
	EnsureDirectory(ctx context.Context, dir string) bool
}

// IsNotFound reports whether err indicates a missing blob.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
