package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"recruitment-portal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func initLogger(t *testing.T, env, level, format string) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Env: env},
		Log:    config.LogConfig{Level: level, Format: format},
	}
	require.NoError(t, Init(cfg))
	require.NotNil(t, Logger)
	t.Cleanup(func() {
		Close()
		Logger = nil
	})
}

// captureOutput swaps in a buffer-backed logger for one call
func captureOutput(logFunc func()) string {
	var buf bytes.Buffer
	original := Logger

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.DebugLevel)
	Logger = zap.New(core)

	logFunc()
	Logger.Sync()
	Logger = original

	return strings.TrimSpace(buf.String())
}

func TestInit(t *testing.T) {
	t.Run("production_json", func(t *testing.T) {
		initLogger(t, "production", "info", "json")
	})

	t.Run("development_console", func(t *testing.T) {
		initLogger(t, "development", "debug", "console")
	})

	t.Run("unknown_level_defaults_to_info", func(t *testing.T) {
		initLogger(t, "test", "chatty", "json")
		assert.False(t, Logger.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, Logger.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("level_is_applied", func(t *testing.T) {
		initLogger(t, "test", "warn", "json")
		assert.False(t, Logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, Logger.Core().Enabled(zapcore.WarnLevel))
	})
}

func TestLogFunctions(t *testing.T) {
	initLogger(t, "test", "debug", "json")

	output := captureOutput(func() {
		Debug("debug line", zap.String("key", "value"))
		Info("info line")
		Warn("warn line")
		Error("error line")
	})

	assert.Contains(t, output, "debug line")
	assert.Contains(t, output, "info line")
	assert.Contains(t, output, "warn line")
	assert.Contains(t, output, "error line")
	assert.Contains(t, output, `"key":"value"`)
}

func TestJSONOutput(t *testing.T) {
	initLogger(t, "production", "info", "json")

	output := captureOutput(func() {
		Info("structured message", zap.String("field1", "value1"), zap.Int("field2", 42))
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &entry))
	assert.Equal(t, "structured message", entry["msg"])
	assert.Equal(t, "value1", entry["field1"])
	assert.Equal(t, float64(42), entry["field2"])
}

func TestWith(t *testing.T) {
	initLogger(t, "test", "debug", "json")

	output := captureOutput(func() {
		With(zap.String("component", "uploads")).Info("child logger message")
	})

	assert.Contains(t, output, "child logger message")
	assert.Contains(t, output, `"component":"uploads"`)
}

func TestNilLoggerIsSafe(t *testing.T) {
	original := Logger
	Logger = nil
	defer func() { Logger = original }()

	assert.NotPanics(t, func() {
		Debug("debug")
		Info("info")
		Warn("warn")
		Error("error")
		Close()
	})

	assert.NotNil(t, With(zap.String("key", "value")))
}

func TestPanic(t *testing.T) {
	initLogger(t, "test", "debug", "json")

	assert.Panics(t, func() {
		Panic("panic message")
	})
}
