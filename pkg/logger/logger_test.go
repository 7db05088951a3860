package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, "debug", "json"))
	l.Debug("counted", "docs", 3)
	assert.Contains(t, buf.String(), `"msg":"counted"`)
	assert.Contains(t, buf.String(), `"docs":3`)
}

func TestNewHandlerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, "warn", "text"))
	l.Info("hidden")
	assert.Empty(t, buf.String())
}

func TestRunIDRoundTrip(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-42")
	id, ok := RunIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "run-42", id)

	_, ok = RunIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, Nop{}, OrNop(nil))
	l := slog.Default()
	assert.Equal(t, Logger(l), OrNop(l))
	Nop{}.Info("ignored", "k", "v")
	Nop{}.Debug("ignored")
}
