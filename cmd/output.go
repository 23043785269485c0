// ABOUTME: Output helpers shared by CLI commands
// ABOUTME: JSON encoding, failure reporting and exit code mapping

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
)

// signalContext returns a context canceled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// exitCodeFor maps a failed result to an exit code
func exitCodeFor(res client.Result) int {
	if res.Success {
		return exitOK
	}
	switch res.Kind {
	case client.KindNetwork, client.KindUnauthorized, client.KindDecode:
		return exitBackend
	default:
		return exitFailed
	}
}

// reportFailure prints a failed result and returns its exit code
func reportFailure(w io.Writer, res client.Result) int {
	if IsJSONOutput() {
		writeJSON(w, res)
	} else {
		fmt.Fprintf(w, "Error: %s\n", res.Error)
	}
	return exitCodeFor(res)
}

// writeJSON writes v as indented JSON
func writeJSON(w io.Writer, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}

// confirm asks a yes/no question on w and reads the answer from r
func confirm(r io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	answer, _ := bufio.NewReader(r).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
