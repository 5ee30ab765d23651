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

// stdinInitData is the --init-data value that means "read it from stdin".
const stdinInitData = "-"

// Seams for tests.
var (
	stdin        io.Reader = os.Stdin
	promptOut    io.Writer = os.Stderr
	isTerminal             = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	readPassword           = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
)

// readInitData reads init data from stdin. On a terminal it prompts and
// does not echo, since init data works as a credential; otherwise it reads
// the first line, so `pbpaste | cmart --init-data - whoami` works.
func readInitData() (string, error) {
	var raw string
	if isTerminal() {
		if _, err := fmt.Fprint(promptOut, "Init data: "); err != nil {
			return "", err
		}
		b, err := readPassword()
		_, _ = fmt.Fprintln(promptOut)
		if err != nil {
			return "", fmt.Errorf("reading init data: %w", err)
		}
		raw = string(b)
	} else {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading init data: %w", err)
		}
		raw = line
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("reading init data: stdin was empty")
	}
	return raw, nil
}
