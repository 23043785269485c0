// ABOUTME: API key commands for the indexnest CLI
// ABOUTME: Create, list and delete keys for programmatic access

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
)

var keyPermissions []string

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Generate a new API key",
	Long: `Generate a new API key. The key is printed once and cannot be
retrieved again, so store it immediately.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithRuntime(func(ctx context.Context, w io.Writer, rt *runtime) int {
			return runAPIKeyCreate(ctx, w, rt, args[0], keyPermissions)
		})
	},
}

var apikeyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	Run: func(cmd *cobra.Command, args []string) {
		runWithRuntime(runAPIKeyList)
	},
}

var apikeyDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithRuntime(func(ctx context.Context, w io.Writer, rt *runtime) int {
			return runAPIKeyDelete(ctx, w, rt, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyCreateCmd, apikeyListCmd, apikeyDeleteCmd)
	apikeyCreateCmd.Flags().StringSliceVar(&keyPermissions, "permission", nil, "Permission to grant (repeatable; default read,write)")
}

// runAPIKeyCreate generates a key and returns exit code
func runAPIKeyCreate(ctx context.Context, w io.Writer, rt *runtime, name string, perms []string) int {
	if !rt.requireSession(ctx, w) {
		return exitBackend
	}
	key, res := rt.session.GenerateAPIKey(ctx, name, perms)
	if !res.Success {
		return reportFailure(w, res)
	}
	if IsJSONOutput() {
		writeJSON(w, key)
		return exitOK
	}
	fmt.Fprintf(w, `API key %q created.

  %s

This key will not be shown again.
`, key.Name, key.Key)
	return exitOK
}

// runAPIKeyList lists key metadata and returns exit code
func runAPIKeyList(ctx context.Context, w io.Writer, rt *runtime) int {
	if !rt.requireSession(ctx, w) {
		return exitBackend
	}
	keys, res := rt.session.APIKeys(ctx)
	if !res.Success {
		return reportFailure(w, res)
	}
	if IsJSONOutput() {
		writeJSON(w, keys)
		return exitOK
	}
	fmt.Fprintln(w, formatKeysHuman(keys))
	return exitOK
}

// formatKeysHuman renders key metadata as a table
func formatKeysHuman(keys []client.APIKey) string {
	if len(keys) == 0 {
		return "No API keys."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-24s  %-20s  %-12s  %s\n", "ID", "NAME", "PERMISSIONS", "LAST USED")
	for _, k := range keys {
		lastUsed := "never"
		if k.LastUsed != nil {
			lastUsed = k.LastUsed.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&sb, "%-24s  %-20s  %-12s  %s\n", k.ID, k.Name, strings.Join(k.Permissions, ","), lastUsed)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// runAPIKeyDelete revokes a key and returns exit code
func runAPIKeyDelete(ctx context.Context, w io.Writer, rt *runtime, id string) int {
	if !rt.requireSession(ctx, w) {
		return exitBackend
	}
	if res := rt.session.DeleteAPIKey(ctx, id); !res.Success {
		return reportFailure(w, res)
	}
	if IsJSONOutput() {
		writeJSON(w, client.OK())
	} else {
		fmt.Fprintf(w, "API key %s deleted.\n", id)
	}
	return exitOK
}
