// ABOUTME: Interactive prompts for credentials
// ABOUTME: Reads passwords without echo when stdin is a terminal

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptLine prints label and reads one line from r
func promptLine(r io.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads a password from stdin. With fromStdin the first line of
// stdin is used as-is; otherwise stdin must be a terminal.
func readPassword(fromStdin bool) (string, error) {
	if fromStdin {
		return promptLine(os.Stdin, io.Discard, "")
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; use --password-stdin")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
