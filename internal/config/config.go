// ABOUTME: Configuration loader for the indexnest client
// ABOUTME: Merges defaults, a TOML file, a .env file and INDEXNEST_* environment variables

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL   = "http://localhost:5000/api"
	DefaultPageSize = 10
	DefaultTimeout  = 30 * time.Second

	appDirName = "indexnest"
)

// Config holds every client setting
type Config struct {
	APIURL     string           `toml:"api_url"`
	PageSize   int              `toml:"page_size"`
	Timeout    Duration         `toml:"timeout"`
	LogLevel   string           `toml:"log_level"`  // debug, info, warn, error
	LogFormat  string           `toml:"log_format"` // text, json
	TokenStore TokenStoreConfig `toml:"token_store"`
}

// TokenStoreConfig selects where the bearer credential is persisted.
// The Type field determines which other fields are relevant.
type TokenStoreConfig struct {
	Type string `toml:"type"` // "file" (default), "memory" or "redis"

	// File-specific fields (only used when Type == "file")
	Path string `toml:"path,omitempty"`

	// Redis-specific fields (only used when Type == "redis")
	RedisAddress  string   `toml:"redis_address,omitempty"`
	RedisPassword string   `toml:"redis_password,omitempty"`
	RedisDB       int      `toml:"redis_db,omitempty"`
	RedisKey      string   `toml:"redis_key,omitempty"`
	RedisTTL      Duration `toml:"redis_ttl,omitempty"`
}

// Duration is a time.Duration written as "30s" or "2m" in TOML
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		APIURL:    DefaultAPIURL,
		PageSize:  DefaultPageSize,
		Timeout:   Duration(DefaultTimeout),
		LogLevel:  "warn",
		LogFormat: "text",
		TokenStore: TokenStoreConfig{
			Type:     "file",
			RedisKey: "indexnest:credential",
		},
	}
}

// Dir returns the config directory following the XDG spec
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName)
}

// DefaultPath returns the default location of config.toml
func DefaultPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// Load builds the configuration. An explicit path must exist; the default
// path is optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = getEnv("INDEXNEST_CONFIG", DefaultPath())
		explicit = os.Getenv("INDEXNEST_CONFIG") != ""
	}
	if path != "" {
		if err := readFile(path, cfg, explicit); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads a .env file without overriding variables already set
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func readFile(path string, cfg *Config, required bool) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if required {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("reading config from %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIURL = getEnv("INDEXNEST_API_URL", cfg.APIURL)
	cfg.PageSize = getEnvInt("INDEXNEST_PAGE_SIZE", cfg.PageSize)
	cfg.Timeout = Duration(getEnvDuration("INDEXNEST_TIMEOUT", time.Duration(cfg.Timeout)))
	cfg.LogLevel = getEnv("INDEXNEST_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("INDEXNEST_LOG_FORMAT", cfg.LogFormat)

	cfg.TokenStore.Type = getEnv("INDEXNEST_TOKEN_STORE", cfg.TokenStore.Type)
	cfg.TokenStore.Path = getEnv("INDEXNEST_TOKEN_PATH", cfg.TokenStore.Path)
	cfg.TokenStore.RedisAddress = getEnv("INDEXNEST_REDIS_ADDRESS", cfg.TokenStore.RedisAddress)
	cfg.TokenStore.RedisPassword = getEnv("INDEXNEST_REDIS_PASSWORD", cfg.TokenStore.RedisPassword)
	cfg.TokenStore.RedisDB = getEnvInt("INDEXNEST_REDIS_DB", cfg.TokenStore.RedisDB)
	cfg.TokenStore.RedisKey = getEnv("INDEXNEST_REDIS_KEY", cfg.TokenStore.RedisKey)
}

// Validate checks value ranges and backend-specific requirements
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	if !strings.Contains(c.APIURL, "://") {
		return fmt.Errorf("api_url must include a scheme, got %q", c.APIURL)
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100, got %d", c.PageSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", time.Duration(c.Timeout))
	}

	switch c.TokenStore.Type {
	case "file", "memory":
	case "redis":
		if c.TokenStore.RedisAddress == "" {
			return fmt.Errorf("redis token store requires redis_address to be set")
		}
	default:
		return fmt.Errorf("unknown token store type: %s", c.TokenStore.Type)
	}
	return nil
}

// TokenPath returns the credential file location for the file store
func (c *Config) TokenPath() string {
	if c.TokenStore.Path != "" {
		return c.TokenStore.Path
	}
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "credentials.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
