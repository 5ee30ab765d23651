package cmd

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withStdin swaps the stdin seams for the duration of a test.
func withStdin(t *testing.T, input string, terminal bool, password func() ([]byte, error)) {
	t.Helper()

	oldIn, oldOut, oldTerm, oldPw := stdin, promptOut, isTerminal, readPassword
	t.Cleanup(func() {
		stdin, promptOut, isTerminal, readPassword = oldIn, oldOut, oldTerm, oldPw
	})

	stdin = strings.NewReader(input)
	promptOut = io.Discard
	isTerminal = func() bool { return terminal }
	if password != nil {
		readPassword = password
	}
}

func TestReadInitData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		terminal bool
		password func() ([]byte, error)
		want     string
		wantErr  string
	}{
		{
			name:  "piped first line",
			input: "query_id=1&hash=ab\nignored\n",
			want:  "query_id=1&hash=ab",
		},
		{
			name:  "piped without newline",
			input: "  user=%7B%7D&hash=cd  ",
			want:  "user=%7B%7D&hash=cd",
		},
		{
			name:    "empty stdin",
			input:   "",
			wantErr: "stdin was empty",
		},
		{
			name:     "terminal prompt without echo",
			terminal: true,
			password: func() ([]byte, error) { return []byte("auth_date=1&hash=ef"), nil },
			want:     "auth_date=1&hash=ef",
		},
		{
			name:     "terminal read fails",
			terminal: true,
			password: func() ([]byte, error) { return nil, errors.New("not a tty") },
			wantErr:  "not a tty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withStdin(t, tt.input, tt.terminal, tt.password)

			got, err := readInitData()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWhoami_InitDataFromStdin(t *testing.T) {
	server := newBackend(t, "")
	withStdin(t, "user=%7B%22id%22%3A9%2C%22first_name%22%3A%22Dana%22%7D&auth_date=1&hash=00\n", false, nil)

	out, err := executeCommand(t, "--server", server, "--init-data", "-", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Dana")
	assert.Contains(t, out, "Authenticated:  true")
}
