package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/classmart/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" Debug ": slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	} {
		assert.Equal(t, want, logger.ParseLevel(in), "level %q", in)
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     string
		format    string
		emit      func(*slog.Logger)
		wantLines int
		check     func(t *testing.T, out string)
	}{
		{
			name:      "text output",
			level:     "info",
			format:    "text",
			emit:      func(l *slog.Logger) { l.Info("fetched listings", "count", 3) },
			wantLines: 1,
			check: func(t *testing.T, out string) {
				t.Helper()
				assert.Contains(t, out, `msg="fetched listings"`)
				assert.Contains(t, out, "count=3")
			},
		},
		{
			name:      "json output",
			level:     "debug",
			format:    "JSON",
			emit:      func(l *slog.Logger) { l.Debug("cache miss", "search", "lamp") },
			wantLines: 1,
			check: func(t *testing.T, out string) {
				t.Helper()
				var rec map[string]any
				require.NoError(t, json.Unmarshal([]byte(out), &rec))
				assert.Equal(t, "DEBUG", rec["level"])
				assert.Equal(t, "lamp", rec["search"])
			},
		},
		{
			name:   "below threshold dropped",
			level:  "warn",
			format: "text",
			emit: func(l *slog.Logger) {
				l.Debug("a")
				l.Info("b")
				l.Warn("c")
				l.Error("d")
			},
			wantLines: 2,
		},
		{
			name:      "unknown format falls back to text",
			level:     "info",
			format:    "logfmt",
			emit:      func(l *slog.Logger) { l.Info("hello") },
			wantLines: 1,
			check: func(t *testing.T, out string) {
				t.Helper()
				assert.True(t, strings.HasPrefix(out, "time="), out)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.emit(logger.NewWithWriter(&buf, tt.level, tt.format))

			assert.Equal(t, tt.wantLines, strings.Count(buf.String(), "\n"))
			if tt.check != nil {
				tt.check(t, buf.String())
			}
		})
	}
}

func TestNew_WritesToStderr(t *testing.T) {
	t.Parallel()
	assert.True(t, logger.New("error", "text").Enabled(context.Background(), slog.LevelError))
}

func TestDiscardAndOrDiscard(t *testing.T) {
	t.Parallel()

	assert.False(t, logger.Discard().Enabled(context.Background(), slog.LevelError))
	assert.False(t, logger.OrDiscard(nil).Enabled(context.Background(), slog.LevelError))

	l := logger.NewWithWriter(&bytes.Buffer{}, "info", "text")
	assert.Same(t, l, logger.OrDiscard(l))
}
