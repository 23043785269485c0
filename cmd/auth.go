// ABOUTME: Session commands for the indexnest CLI
// ABOUTME: login, register, logout and whoami

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
)

var (
	loginEmail    string
	passwordStdin bool
	regFirstName  string
	regLastName   string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the credential",
	Run: func(cmd *cobra.Command, args []string) {
		email, password, err := readCredentials()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitFailed)
		}
		runWithRuntime(func(ctx context.Context, w io.Writer, rt *runtime) int {
			return runLogin(ctx, w, rt, email, password)
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Run: func(cmd *cobra.Command, args []string) {
		email, password, err := readCredentials()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitFailed)
		}
		req := &client.RegisterRequest{
			Email:     email,
			Password:  password,
			FirstName: regFirstName,
			LastName:  regLastName,
		}
		runWithRuntime(func(ctx context.Context, w io.Writer, rt *runtime) int {
			return runRegister(ctx, w, rt, req)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credential",
	Run: func(cmd *cobra.Command, args []string) {
		runWithRuntime(func(_ context.Context, w io.Writer, rt *runtime) int {
			return runLogout(w, rt)
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Long:  `Verify the stored credential with the backend and show the account it belongs to.`,
	Run: func(cmd *cobra.Command, args []string) {
		runWithRuntime(runWhoami)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&loginEmail, "email", "", "Account email (prompted when omitted)")
		c.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	}
	registerCmd.Flags().StringVar(&regFirstName, "first-name", "", "First name")
	registerCmd.Flags().StringVar(&regLastName, "last-name", "", "Last name")
}

// readCredentials collects the email and password from flags and prompts
func readCredentials() (string, string, error) {
	email := loginEmail
	if email == "" {
		if passwordStdin {
			return "", "", fmt.Errorf("--email is required with --password-stdin")
		}
		var err error
		if email, err = promptLine(os.Stdin, os.Stderr, "Email: "); err != nil {
			return "", "", err
		}
	}
	password, err := readPassword(passwordStdin)
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

// runLogin signs in and returns exit code
func runLogin(ctx context.Context, w io.Writer, rt *runtime, email, password string) int {
	if strings.TrimSpace(email) == "" || password == "" {
		return reportFailure(w, client.LocalFailure("email and password are required"))
	}
	res := rt.session.Login(ctx, strings.TrimSpace(email), password)
	if !res.Success {
		return reportFailure(w, res)
	}
	printPrincipal(w, rt)
	return exitOK
}

// runRegister creates an account and returns exit code
func runRegister(ctx context.Context, w io.Writer, rt *runtime, req *client.RegisterRequest) int {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return reportFailure(w, client.LocalFailure("email and password are required"))
	}
	res := rt.session.Register(ctx, req)
	if !res.Success {
		return reportFailure(w, res)
	}
	printPrincipal(w, rt)
	return exitOK
}

// runLogout erases the credential; it always succeeds
func runLogout(w io.Writer, rt *runtime) int {
	rt.session.Logout()
	if IsJSONOutput() {
		writeJSON(w, client.OK())
	} else {
		fmt.Fprintln(w, "Signed out.")
	}
	return exitOK
}

// runWhoami verifies the stored credential and returns exit code
func runWhoami(ctx context.Context, w io.Writer, rt *runtime) int {
	if !rt.requireSession(ctx, w) {
		return exitBackend
	}
	printPrincipal(w, rt)
	return exitOK
}

func printPrincipal(w io.Writer, rt *runtime) {
	user := rt.session.Snapshot().Principal
	if user == nil {
		return
	}
	if IsJSONOutput() {
		writeJSON(w, user)
		return
	}
	fmt.Fprintln(w, formatUserHuman(rt.api.BaseURL(), user))
}

// formatUserHuman formats the principal for human readability
func formatUserHuman(baseURL string, u *client.User) string {
	return fmt.Sprintf(`Signed in as %s <%s>
Backend:  %s
Plan:     %s
Credits:  %d`,
		u.DisplayName(), u.Email,
		baseURL,
		u.Tier(),
		u.Credits)
}
