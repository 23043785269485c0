// ABOUTME: Durable credential persistence for the session manager
// ABOUTME: Defines the Store capability and an in-memory implementation

package tokenstore

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when no credential is stored
var ErrNotFound = errors.New("no stored credential")

// Store persists a single bearer credential across process restarts
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Close() error
}

// Memory keeps the credential in process memory. Used by tests and by the
// "memory" store type.
type Memory struct {
	mu    sync.Mutex
	token string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

// Get returns the stored credential or ErrNotFound
func (m *Memory) Get(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNotFound
	}
	return m.token, nil
}

// Set stores the credential
func (m *Memory) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear removes the credential
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}
