// ABOUTME: Check command for the indexnest CLI
// ABOUTME: Validates indexing health thresholds for CI/CD pipelines

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/overview"
)

var (
	minSuccessRate int
	maxPending     int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check indexing thresholds",
	Long: `Check indexing thresholds and exit non-zero if any are breached.

Exit codes:
  0 - All checks passed
  1 - One or more thresholds breached
  2 - Error (connectivity, not signed in, invalid input)`,
	Run: func(cmd *cobra.Command, args []string) {
		runWithRuntime(func(ctx context.Context, w io.Writer, rt *runtime) int {
			return runCheck(ctx, w, rt, minSuccessRate, maxPending)
		})
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().IntVar(&minSuccessRate, "min-success-rate", 80, "Minimum indexing success rate percentage")
	checkCmd.Flags().IntVar(&maxPending, "max-pending", -1, "Maximum pending links (-1 disables the check)")
}

// checkResult represents the result of a single threshold check
type checkResult struct {
	name      string
	value     float64
	threshold float64
	unit      string
	passed    bool
}

// runCheck executes the threshold checks and returns exit code
func runCheck(ctx context.Context, w io.Writer, rt *runtime, minRate, maxPend int) int {
	if err := validateThresholds(minRate, maxPend); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitBackend
	}
	if !rt.requireSession(ctx, w) {
		return exitBackend
	}

	ov, res := overview.NewLoader(rt.api, rt.session).Load(ctx)
	if !res.Success {
		reportFailure(w, res)
		return exitBackend
	}

	results := performChecks(ov.Stats, minRate, maxPend)

	if IsJSONOutput() {
		fmt.Fprintln(w, formatCheckJSON(results))
	} else {
		fmt.Fprintln(w, formatCheckHuman(results))
	}

	_, failed := countResults(results)
	if failed > 0 {
		return exitFailed
	}
	return exitOK
}

// validateThresholds ensures threshold values are valid
func validateThresholds(minRate, maxPend int) error {
	if minRate < 0 || minRate > 100 {
		return fmt.Errorf("--min-success-rate must be between 0 and 100")
	}
	if maxPend < -1 {
		return fmt.Errorf("--max-pending must be -1 or greater")
	}
	return nil
}

// performChecks runs all threshold checks against the account statistics
func performChecks(stats client.Stats, minRate, maxPend int) []checkResult {
	rate := float64(stats.SuccessRate)
	results := []checkResult{{
		name:      "Success rate",
		value:     rate,
		threshold: float64(minRate),
		unit:      "%",
		// An account with nothing submitted has nothing failing
		passed: stats.TotalLinks == 0 || rate >= float64(minRate),
	}}

	if maxPend >= 0 {
		results = append(results, checkResult{
			name:      "Pending links",
			value:     float64(stats.PendingLinks),
			threshold: float64(maxPend),
			passed:    stats.PendingLinks <= maxPend,
		})
	}
	return results
}

// countResults returns the count of passed and failed checks
func countResults(results []checkResult) (passed, failed int) {
	for _, r := range results {
		if r.passed {
			passed++
		} else {
			failed++
		}
	}
	return
}

// formatCheckHuman formats check results for human readability
func formatCheckHuman(results []checkResult) string {
	var output string

	for _, r := range results {
		symbol := "✓"
		if !r.passed {
			symbol = "✗"
		}
		output += fmt.Sprintf("%s %s: %.0f%s (threshold: %.0f%s)\n",
			symbol, r.name, r.value, r.unit, r.threshold, r.unit)
	}

	passed, failed := countResults(results)
	if failed > 0 {
		output += fmt.Sprintf("\nFAILED: %d check(s) breached threshold", failed)
	} else {
		output += fmt.Sprintf("\nPASSED: All %d check(s) within thresholds", passed)
	}

	return output
}

// formatCheckJSON formats check results as JSON
func formatCheckJSON(results []checkResult) string {
	_, failed := countResults(results)

	checks := make([]map[string]any, len(results))
	for i, r := range results {
		checks[i] = map[string]any{
			"name":      r.name,
			"value":     r.value,
			"threshold": r.threshold,
			"unit":      r.unit,
			"passed":    r.passed,
		}
	}

	status := "passed"
	if failed > 0 {
		status = "failed"
	}

	data, _ := json.MarshalIndent(map[string]any{
		"status": status,
		"checks": checks,
	}, "", "  ")
	return string(data)
}
