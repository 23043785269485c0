// ABOUTME: Builds the configured credential store
// ABOUTME: Selects the memory, file or redis backend from the token_store config section

package tokenstore

import (
	"fmt"
	"time"

	"github.com/Mujtaba-Asif/indexing-nest/internal/config"
)

// New creates the Store described by cfg
func New(cfg *config.Config) (Store, error) {
	switch cfg.TokenStore.Type {
	case "memory":
		return NewMemory(), nil
	case "", "file":
		path := cfg.TokenPath()
		if path == "" {
			return nil, fmt.Errorf("cannot determine credential file location")
		}
		return NewFile(path), nil
	case "redis":
		store, err := NewRedis(RedisOptions{
			Address:  cfg.TokenStore.RedisAddress,
			Password: cfg.TokenStore.RedisPassword,
			DB:       cfg.TokenStore.RedisDB,
			Key:      cfg.TokenStore.RedisKey,
			TTL:      time.Duration(cfg.TokenStore.RedisTTL),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis token store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown token store type: %s", cfg.TokenStore.Type)
	}
}
