// ABOUTME: Profile command for the indexnest CLI
// ABOUTME: Updates the signed-in account's name

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
)

var (
	profileFirstName string
	profileLastName  string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the account profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update first and last name",
	Run: func(cmd *cobra.Command, args []string) {
		update := &client.ProfileUpdate{FirstName: profileFirstName, LastName: profileLastName}
		runWithRuntime(func(ctx context.Context, w io.Writer, rt *runtime) int {
			return runProfileUpdate(ctx, w, rt, update)
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	profileUpdateCmd.Flags().StringVar(&profileFirstName, "first-name", "", "New first name")
	profileUpdateCmd.Flags().StringVar(&profileLastName, "last-name", "", "New last name")
}

// runProfileUpdate sends the patch and returns exit code
func runProfileUpdate(ctx context.Context, w io.Writer, rt *runtime, update *client.ProfileUpdate) int {
	if update.FirstName == "" && update.LastName == "" {
		return reportFailure(w, client.LocalFailure("nothing to update: pass --first-name or --last-name"))
	}
	if !rt.requireSession(ctx, w) {
		return exitBackend
	}
	if res := rt.session.UpdateProfile(ctx, update); !res.Success {
		return reportFailure(w, res)
	}
	printPrincipal(w, rt)
	return exitOK
}
