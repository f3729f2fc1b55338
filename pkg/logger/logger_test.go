package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"default", "", zerolog.InfoLevel},
		{"debug", "debug", zerolog.DebugLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"garbage falls back to info", "loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(Config{Level: tt.level}, &bytes.Buffer{})
			assert.Equal(t, tt.want, l.GetLevel())
		})
	}
}

func TestWithCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: "info", Service: "user"}, &buf)

	ctx := base.WithContext(context.Background())
	ctx = WithCorrelationID(ctx, "corr-123")

	assert.Equal(t, "corr-123", CorrelationID(ctx))

	Ctx(ctx).Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "corr-123", entry[CorrelationIDField])
	assert.Equal(t, "user", entry["service"])
	assert.Equal(t, "hello", entry["message"])
}

func TestCorrelationIDMissing(t *testing.T) {
	assert.Empty(t, CorrelationID(context.Background()))
}
