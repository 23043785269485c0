// ABOUTME: Tests for credential stores
// ABOUTME: Covers memory, file and redis backends and the config-driven factory

package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mujtaba-Asif/indexing-nest/internal/config"
)

// exerciseStore runs the Get/Set/Clear contract shared by every backend
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	if err := s.Set(ctx, "tok-1"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := s.Set(ctx, "tok-2"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != "tok-2" {
		t.Errorf("expected tok-2, got %q", got)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := s.Get(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after Clear, got %v", err)
	}
	// Clearing twice is fine
	if err := s.Clear(ctx); err != nil {
		t.Errorf("second Clear() error: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	exerciseStore(t, NewFile(path))
}

func TestFile_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	s := NewFile(path)
	if err := s.Set(context.Background(), "secret"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %o", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("temporary file should not remain after Set")
	}
}

func TestFile_SurvivesNewInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := NewFile(path).Set(context.Background(), "persisted"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := NewFile(path).Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != "persisted" {
		t.Errorf("expected persisted, got %q", got)
	}
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	os.WriteFile(path, []byte("not json"), 0600)

	if _, err := NewFile(path).Get(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for corrupt file, got %v", err)
	}
}

func TestNewRedis_EmptyAddress(t *testing.T) {
	store, err := NewRedis(RedisOptions{Key: "k"})
	if !errors.Is(err, ErrEmptyAddress) {
		t.Errorf("expected ErrEmptyAddress, got %v", err)
	}
	if store != nil {
		t.Error("expected nil store for invalid config")
	}
}

func TestRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	addr := os.Getenv("INDEXNEST_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("INDEXNEST_TEST_REDIS_ADDR not set")
	}

	store, err := NewRedis(RedisOptions{
		Address: addr,
		Key:     "indexnest:test:" + t.Name(),
		TTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	exerciseStore(t, store)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		store   config.TokenStoreConfig
		want    string
		wantErr bool
	}{
		{"memory", config.TokenStoreConfig{Type: "memory"}, "*tokenstore.Memory", false},
		{"file", config.TokenStoreConfig{Type: "file", Path: filepath.Join(dir, "c.json")}, "*tokenstore.File", false},
		{"default type", config.TokenStoreConfig{Path: filepath.Join(dir, "c.json")}, "*tokenstore.File", false},
		{"redis without address", config.TokenStoreConfig{Type: "redis", RedisKey: "k"}, "", true},
		{"unknown", config.TokenStoreConfig{Type: "vault"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.TokenStore = tt.store

			store, err := New(cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer store.Close()

			switch tt.want {
			case "*tokenstore.Memory":
				if _, ok := store.(*Memory); !ok {
					t.Errorf("expected *Memory, got %T", store)
				}
			case "*tokenstore.File":
				if _, ok := store.(*File); !ok {
					t.Errorf("expected *File, got %T", store)
				}
			}
		})
	}
}
