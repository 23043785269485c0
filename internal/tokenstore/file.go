// ABOUTME: File-backed credential store in the XDG config directory
// ABOUTME: Writes the token as JSON with owner-only permissions

package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// File stores the credential in a JSON file
type File struct {
	mu   sync.Mutex
	path string
}

type fileData struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// NewFile creates a file store writing to path
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the credential file location
func (f *File) Path() string {
	return f.path
}

// Get reads the credential from disk.
// A missing or unreadable file is treated as no credential.
func (f *File) Get(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential file: %w", err)
	}

	var stored fileData
	if err := json.Unmarshal(data, &stored); err != nil || stored.Token == "" {
		// Corrupt file, behave as signed out
		return "", ErrNotFound
	}
	return stored.Token, nil
}

// Set writes the credential to disk
func (f *File) Set(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.MarshalIndent(fileData{Token: token, SavedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}

	// Write to a sibling file first so a crash never leaves half a token
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// Clear deletes the credential file
func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}

// Close is a no-op
func (f *File) Close() error {
	return nil
}
