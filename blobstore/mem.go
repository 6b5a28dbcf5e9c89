package blobstore

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-memory Store used by tests and local development.
// The fault hooks let tests inject failures for specific paths.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string]string

	// ReadErr and WriteErr, when set, are consulted before every read or
	// write; a non-nil return is surfaced as the operation's error.
	ReadErr  func(dir, name string) error
	WriteErr func(dir, name string) error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string]string)}
}

// ReadFile implements Store.ReadFile.
func (m *MemStore) ReadFile(_ context.Context, dir, name string) (string, error) {
	if m.ReadErr != nil {
		if err := m.ReadErr(dir, name); err != nil {
			return "", err
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.blobs[path.Join(dir, name)]
	if !ok {
		return "", ErrNotFound
	}
	return content, nil
}

// WriteFile implements Store.WriteFile.
func (m *MemStore) WriteFile(_ context.Context, dir, name, content string) error {
	if m.WriteErr != nil {
		if err := m.WriteErr(dir, name); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[path.Join(dir, name)] = content
	return nil
}

// Exists implements Store.Exists.
func (m *MemStore) Exists(_ context.Context, dir, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[path.Join(dir, name)]
	return ok, nil
}

// List implements Store.List.
func (m *MemStore) List(_ context.Context, dir string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := strings.TrimSuffix(dir, "/") + "/"
	var names []string
	for key := range m.blobs {
		name := strings.TrimPrefix(key, prefix)
		if name == key || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete implements Store.Delete.
func (m *MemStore) Delete(_ context.Context, dir, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, path.Join(dir, name))
	return nil
}

// EnsureDirectory implements Store.EnsureDirectory.
func (m *MemStore) EnsureDirectory(_ context.Context, dir string) bool {
	return dir != ""
}
