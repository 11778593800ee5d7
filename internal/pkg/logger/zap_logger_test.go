package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &ZapLogger{logger: zap.New(core)}, logs
}

func TestZapLoggerFields(t *testing.T) {
	l, logs := observed(zapcore.DebugLevel)

	l.Info("Router", "Query routed", map[string]interface{}{"category": "AUTOMATION"})
	l.Warn("Hub", "Client dropped", nil)

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "Query routed", entries[0].Message)
	assert.Equal(t, "Router", first["module"])
	assert.Equal(t, map[string]interface{}{"category": "AUTOMATION"}, first["details"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, map[string]interface{}{}, entries[1].ContextMap()["details"], "nil details become an empty map")
}

func TestZapLoggerErrorField(t *testing.T) {
	l, logs := observed(zapcore.DebugLevel)

	l.Error("DecisionLog", "Failed to record decision", map[string]interface{}{"error": errors.New("db down")})
	l.Error("DecisionLog", "Failed to record decision", map[string]interface{}{"error": "already a string"})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "db down", entries[0].ContextMap()["error"])
	_, hasErr := entries[1].ContextMap()["error"]
	assert.False(t, hasErr, "only error values are promoted")
}

func TestZapLoggerLevelFilter(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)

	l.Debug("Classifier", "scores", map[string]interface{}{"n": 1})
	assert.Zero(t, logs.Len())

	NewNopLogger().Error("Router", "discarded", nil)
}
