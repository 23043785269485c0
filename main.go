// ABOUTME: Entry point for the indexnest CLI
// ABOUTME: Submits links for indexing and tracks their status from the terminal

package main

import (
	"fmt"
	"os"

	"github.com/Mujtaba-Asif/indexing-nest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
