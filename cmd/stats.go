// ABOUTME: Stats command for the indexnest CLI
// ABOUTME: Shows account statistics and the most recent submissions

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mujtaba-Asif/indexing-nest/internal/overview"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show indexing statistics",
	Long:  `Display link counts, the indexing success rate and the five most recent submissions.`,
	Run: func(cmd *cobra.Command, args []string) {
		runWithRuntime(runStats)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// runStats loads the dashboard overview and returns exit code
func runStats(ctx context.Context, w io.Writer, rt *runtime) int {
	if !rt.requireSession(ctx, w) {
		return exitBackend
	}

	ov, res := overview.NewLoader(rt.api, rt.session).Load(ctx)
	if !res.Success {
		return reportFailure(w, res)
	}

	if IsJSONOutput() {
		writeJSON(w, map[string]any{"stats": ov.Stats, "recent": ov.Recent})
	} else {
		fmt.Fprintln(w, formatStatsHuman(ov))
	}
	return exitOK
}

// formatStatsHuman formats the overview for human readability
func formatStatsHuman(ov *overview.Overview) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `Total links:   %d
Indexed:       %d
Pending:       %d
Success rate:  %.1f%% [%s]`,
		ov.Stats.TotalLinks,
		ov.Stats.IndexedLinks,
		ov.Stats.PendingLinks,
		float64(ov.Stats.SuccessRate), rateStatus(float64(ov.Stats.SuccessRate), 80, 50))

	if len(ov.Recent) > 0 {
		sb.WriteString("\n\nRecent submissions:")
		for _, l := range ov.Recent {
			fmt.Fprintf(&sb, "\n  %-10s  %s", l.Status, l.URL)
		}
	}
	return sb.String()
}

// rateStatus returns ok/warning/critical for a success rate
func rateStatus(percent, okThreshold, warningThreshold float64) string {
	if percent >= okThreshold {
		return "ok"
	}
	if percent >= warningThreshold {
		return "warning"
	}
	return "critical"
}
