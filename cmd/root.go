// ABOUTME: Root command for the indexnest CLI
// ABOUTME: Handles global flags, configuration and the shared session runtime

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/config"
	"github.com/Mujtaba-Asif/indexing-nest/internal/logger"
	"github.com/Mujtaba-Asif/indexing-nest/internal/session"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tokenstore"
)

var (
	apiURL     string
	configPath string
	jsonOutput bool
	logLevel   string
)

// Exit codes shared by every command
const (
	exitOK      = 0
	exitFailed  = 1 // the operation was rejected
	exitBackend = 2 // connectivity, authentication or configuration problem
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "indexnest",
	Short: "CLI for the link indexing service",
	Long: `indexnest submits URLs for search engine indexing and tracks their status.

Sign in once with 'indexnest login'; the credential is kept in the token
store and reused by every later command.

Environment Variables:
  INDEXNEST_API_URL      Backend API URL (default: http://localhost:5000/api)
  INDEXNEST_CONFIG       Path to config.toml
  INDEXNEST_LOG_LEVEL    debug, info, warn or error
  INDEXNEST_TOKEN_STORE  file, memory or redis`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides INDEXNEST_API_URL)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/indexnest/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// loadConfig reads the config and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, cfg.Validate()
}

// runtime bundles the objects shared by every command
type runtime struct {
	cfg     *config.Config
	api     *client.Client
	store   tokenstore.Store
	session *session.Manager
}

// newRuntime loads configuration, configures logging to logOut and builds
// the client core
func newRuntime(logOut io.Writer) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat, logOut)

	store, err := tokenstore.New(cfg)
	if err != nil {
		return nil, err
	}
	return newRuntimeWith(cfg, store), nil
}

// newRuntimeWith builds the core from an already loaded config and store
func newRuntimeWith(cfg *config.Config, store tokenstore.Store) *runtime {
	api := client.NewWithTimeout(cfg.APIURL, cfg.Timeout.Std())
	return &runtime{
		cfg:     cfg,
		api:     api,
		store:   store,
		session: session.NewManager(api, store),
	}
}

// Close releases the token store
func (r *runtime) Close() {
	r.store.Close()
}

// requireSession restores the stored session and reports whether it is
// usable, printing a hint when it is not
func (r *runtime) requireSession(ctx context.Context, w io.Writer) bool {
	r.session.Restore(ctx)
	if r.session.Snapshot().SignedIn() {
		return true
	}
	fmt.Fprintln(w, "Error: not signed in. Run 'indexnest login' first.")
	return false
}

// runWithRuntime is the Run body shared by commands: it builds the runtime,
// runs fn and exits with its code
func runWithRuntime(fn func(ctx context.Context, w io.Writer, rt *runtime) int) {
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := newRuntime(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitBackend)
	}
	exitCode := fn(ctx, os.Stdout, rt)
	rt.Close()
	if exitCode != exitOK {
		os.Exit(exitCode)
	}
}
