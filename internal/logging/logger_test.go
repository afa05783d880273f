package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.True(t, cfg.Caller.Enabled)
	assert.Equal(t, "planward", cfg.Fields["service"])
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ValidateRejectsUnknownFormat(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	require.Error(t, cfg.Validate())
}

func TestNewLogger_RejectsInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Caller.Skip = -1
	_, err := NewLogger(cfg)
	require.Error(t, err)
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"trace", TraceLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := LevelFromString(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestContextFields_SessionID(t *testing.T) {
	ctx := WithSessionID(context.Background(), "sess-1")

	assert.Equal(t, "sess-1", SessionIDFromContext(ctx))
	fields := ContextFields(ctx)
	assert.Contains(t, fields, zap.String("session.id", "sess-1"))
}

func TestContextFields_EmptyContext(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
	assert.Empty(t, SessionIDFromContext(context.Background()))
}

func TestLogger_ContextAwareLogging(t *testing.T) {
	logger := NewTestLogger()
	ctx := WithSessionID(context.Background(), "sess-1")

	logger.Info(ctx, "phase advanced", zap.String("to", "scaffolding"))

	logger.AssertLogged(t, zapcore.InfoLevel, "phase advanced")
	entries := logger.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "sess-1", fields["session.id"])
	assert.Equal(t, "scaffolding", fields["to"])
}

func TestLogger_TraceGatedByLevel(t *testing.T) {
	logger := NewTestLogger()
	logger.Trace(context.Background(), "very detailed")
	logger.AssertLogged(t, TraceLevel, "very detailed")
}

func TestLogger_NamedAndWith(t *testing.T) {
	logger := NewTestLogger()
	child := logger.Named("expand").With(zap.String("node", "n1"))
	child.Info(context.Background(), "implemented node")

	entries := logger.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "expand", entries[0].LoggerName)
	assert.Equal(t, "n1", entries[0].ContextMap()["node"])
}
