package utils

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	t.Run("falls back to info on an unknown level", func(t *testing.T) {
		logger, err := NewLogger(LoggerConfig{Level: "loud", Format: "json"})
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("creates the log directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "server.log")
		logger, err := NewLogger(LoggerConfig{Level: "debug", OutputPath: path})
		require.NoError(t, err)
		logger.Info("hello")
		assert.FileExists(t, path)
	})
}

func TestKVLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	kv := NewKVLogger(zap.New(core))

	kv.Info("Status changed", "entity_type", "cm_lot", "id", int64(7), 42, "ignored", "dangling")
	kv.Error("Transition refused", "error", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 2)

	fields := entries[0].ContextMap()
	assert.Equal(t, "cm_lot", fields["entity_type"])
	assert.Equal(t, int64(7), fields["id"])
	assert.Len(t, fields, 2)

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}
