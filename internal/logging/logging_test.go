package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
	assert.True(t, ValidLevel("Debug"))
	assert.False(t, ValidLevel("verbose"))
}

func TestLogPricingFields(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	logger := WithStrategy(WithOperation(zerolog.New(&buf), "price"), "replicating")

	LogPricing(logger, "put", 100, 100, 1, 2.38, 3, time.Millisecond)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pricing", entry["event"])
	assert.Equal(t, "price", entry["operation"])
	assert.Equal(t, "replicating", entry["method"])
	assert.Equal(t, "put", entry["kind"])
	assert.EqualValues(t, 3, entry["evaluations"])
	assert.EqualValues(t, 2.38, entry["value"])
}

func TestLogStoreError(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	LogStore(zerolog.New(&buf), "delete", "straddle", errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "Store operation failed", entry["message"])
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), logger)
	fromCtx := FromContext(ctx)
	fromCtx.Warn().Msg("hello")
	assert.Contains(t, buf.String(), "hello")

	// A bare context yields a logger that drops everything.
	bare := FromContext(context.Background())
	bare.Error().Msg("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNewLoggerWithConfigWritesFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	path := filepath.Join(t.TempDir(), "logs", "pricer.log")
	var console bytes.Buffer
	logger := NewLoggerWithConfig(LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   path,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
		Out:        &console,
	})

	logger.Info().Msg("written")
	logger.Debug().Msg("filtered")

	assert.Contains(t, console.String(), "written")
	assert.NotContains(t, console.String(), "filtered")
	assert.FileExists(t, path)
}

func TestFormatLevel(t *testing.T) {
	color.NoColor = true

	assert.Equal(t, "WRN", formatLevel("warn"))
	assert.Equal(t, "DBG", formatLevel("debug"))
	assert.Equal(t, "PANIC", formatLevel("panic"))
	assert.Equal(t, "???", formatLevel(nil))
}
