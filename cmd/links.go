// ABOUTME: Link commands for the indexnest CLI
// ABOUTME: List, submit, retry and delete submitted URLs

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/links"
)

var (
	listStatus     string
	listSearch     string
	listPage       int
	submitPriority string
	submitFile     string
	deleteYes      bool
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Manage submitted links",
}

var linksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submitted links",
	Run: func(cmd *cobra.Command, args []string) {
		status, err := client.ParseLinkStatus(listStatus)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitFailed)
		}
		q := links.Query{Status: status, Search: listSearch, Page: listPage}
		runWithRuntime(func(ctx context.Context, w io.Writer, rt *runtime) int {
			return runLinksList(ctx, w, rt, q)
		})
	},
}

var linksSubmitCmd = &cobra.Command{
	Use:   "submit [URL...]",
	Short: "Submit URLs for indexing",
	Long: `Submit URLs for indexing. URLs come from the arguments, from --file, or
from stdin when --file is "-". One URL per line; blank lines are ignored.

Example:
  indexnest links submit https://example.com/a https://example.com/b
  indexnest links submit --priority high --file urls.txt`,
	Run: func(cmd *cobra.Command, args []string) {
		text, err := submissionText(args, submitFile, os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitFailed)
		}
		priority, err := client.ParsePriority(submitPriority)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitFailed)
		}
		runWithRuntime(func(ctx context.Context, w io.Writer, rt *runtime) int {
			return runLinksSubmit(ctx, w, rt, text, priority)
		})
	},
}

var linksRetryCmd = &cobra.Command{
	Use:   "retry ID",
	Short: "Retry a failed link",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithRuntime(func(ctx context.Context, w io.Writer, rt *runtime) int {
			return runLinksRetry(ctx, w, rt, args[0])
		})
	},
}

var linksDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a link",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !deleteYes && !confirm(os.Stdin, os.Stderr, fmt.Sprintf("Delete link %s?", args[0])) {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return
		}
		runWithRuntime(func(ctx context.Context, w io.Writer, rt *runtime) int {
			return runLinksDelete(ctx, w, rt, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(linksCmd)
	linksCmd.AddCommand(linksListCmd, linksSubmitCmd, linksRetryCmd, linksDeleteCmd)

	linksListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status: pending, processing, indexed, failed")
	linksListCmd.Flags().StringVar(&listSearch, "search", "", "Filter by URL substring")
	linksListCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	linksSubmitCmd.Flags().StringVar(&submitPriority, "priority", "normal", "Priority: low, normal, high, urgent")
	linksSubmitCmd.Flags().StringVarP(&submitFile, "file", "f", "", `File with one URL per line ("-" for stdin)`)
	linksDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

// submissionText joins URLs from arguments and the optional file
func submissionText(args []string, file string, stdin io.Reader) (string, error) {
	parts := append([]string{}, args...)
	switch file {
	case "":
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		parts = append(parts, string(data))
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		parts = append(parts, string(data))
	}
	return strings.Join(parts, "\n"), nil
}

// runLinksList fetches one page of links and returns exit code
func runLinksList(ctx context.Context, w io.Writer, rt *runtime, q links.Query) int {
	if !rt.requireSession(ctx, w) {
		return exitBackend
	}
	list := links.NewSync(rt.api, rt.session, rt.cfg.PageSize)
	if res := list.Load(ctx, q); !res.Success {
		return reportFailure(w, res)
	}

	view := list.View()
	if IsJSONOutput() {
		writeJSON(w, map[string]any{
			"links":      view.Items,
			"page":       view.Query.Page,
			"totalPages": view.TotalPages,
			"total":      view.Total,
		})
	} else {
		fmt.Fprintln(w, formatLinksHuman(view))
	}
	return exitOK
}

// formatLinksHuman renders a page of links as a table
func formatLinksHuman(view links.View) string {
	if len(view.Items) == 0 {
		return "No links found."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-24s  %-10s  %-8s  %-16s  %s\n", "ID", "STATUS", "PRIORITY", "SUBMITTED", "URL")
	for _, l := range view.Items {
		submitted := "-"
		if !l.SubmittedAt.IsZero() {
			submitted = l.SubmittedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&sb, "%-24s  %-10s  %-8s  %-16s  %s\n", l.ID, l.Status, l.Priority, submitted, l.URL)
	}
	fmt.Fprintf(&sb, "\nPage %d of %d (%d links)", view.Query.Page, view.TotalPages, view.Total)
	return sb.String()
}

// runLinksSubmit submits a batch and returns exit code
func runLinksSubmit(ctx context.Context, w io.Writer, rt *runtime, text string, priority client.Priority) int {
	if len(links.ParseURLs(text)) == 0 {
		return reportFailure(w, client.LocalFailure(links.MsgEmptySubmission))
	}
	if !rt.requireSession(ctx, w) {
		return exitBackend
	}
	list := links.NewSync(rt.api, rt.session, rt.cfg.PageSize)
	submitted, res := list.SubmitBatch(ctx, text, priority)
	if !res.Success {
		return reportFailure(w, res)
	}

	// Credits are spent server-side; show the balance it now reports
	rt.session.Reload(ctx)
	credits := -1
	if p := rt.session.Snapshot().Principal; p != nil {
		credits = p.Credits
	}

	if IsJSONOutput() {
		writeJSON(w, map[string]any{"success": true, "submitted": submitted, "credits": credits})
	} else {
		fmt.Fprintf(w, "Submitted %d link(s) for indexing.\n", submitted)
		if credits >= 0 {
			fmt.Fprintf(w, "Credits remaining: %d\n", credits)
		}
	}
	return exitOK
}

// runLinksRetry retries a failed link and returns exit code
func runLinksRetry(ctx context.Context, w io.Writer, rt *runtime, id string) int {
	if !rt.requireSession(ctx, w) {
		return exitBackend
	}
	list := links.NewSync(rt.api, rt.session, rt.cfg.PageSize)
	if res := list.Retry(ctx, id); !res.Success {
		return reportFailure(w, res)
	}
	if IsJSONOutput() {
		writeJSON(w, client.OK())
	} else {
		fmt.Fprintf(w, "Link %s queued for retry.\n", id)
	}
	return exitOK
}

// runLinksDelete deletes a link and returns exit code
func runLinksDelete(ctx context.Context, w io.Writer, rt *runtime, id string) int {
	if !rt.requireSession(ctx, w) {
		return exitBackend
	}
	list := links.NewSync(rt.api, rt.session, rt.cfg.PageSize)
	if res := list.Remove(ctx, id); !res.Success {
		return reportFailure(w, res)
	}
	if IsJSONOutput() {
		writeJSON(w, client.OK())
	} else {
		fmt.Fprintf(w, "Link %s deleted.\n", id)
	}
	return exitOK
}
