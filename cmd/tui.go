// ABOUTME: tui command launching the interactive terminal interface
// ABOUTME: Logs go to debug.log in the config directory while the TUI owns the terminal

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Mujtaba-Asif/indexing-nest/internal/config"
	"github.com/Mujtaba-Asif/indexing-nest/internal/links"
	"github.com/Mujtaba-Asif/indexing-nest/internal/logger"
	"github.com/Mujtaba-Asif/indexing-nest/internal/overview"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive interface",
	Long: `Opens a full-screen interface for signing in, browsing and filtering
links, submitting batches and managing API keys.

Log output is written to debug.log in the config directory.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runTUI(os.Stdin.Fd()))
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(fd uintptr) int {
	if !term.IsTerminal(int(fd)) {
		fmt.Fprintln(os.Stderr, "Error: the interactive interface needs a terminal")
		return exitBackend
	}

	var logOut io.Writer = io.Discard
	if f, err := logger.OpenFile(config.Dir()); err == nil {
		defer f.Close()
		logOut = f
	}

	rt, err := newRuntime(logOut)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitBackend
	}
	defer rt.Close()

	deps := tui.Deps{
		Session:  rt.session,
		Links:    links.NewSync(rt.api, rt.session, rt.cfg.PageSize),
		Overview: overview.NewLoader(rt.api, rt.session),
		BaseURL:  rt.cfg.APIURL,
	}
	if err := tui.Run(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}
