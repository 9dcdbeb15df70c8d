package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewService(t *testing.T) {
	t.Run("default configuration", func(t *testing.T) {
		config := Config{
			Level:      Info,
			Format:     "json",
			OutputPath: "stdout",
		}

		service, err := NewService(config)

		require.NoError(t, err)
		assert.NotNil(t, service)
		assert.NotNil(t, service.logger)
		assert.NotNil(t, service.sugar)
	})

	t.Run("console format", func(t *testing.T) {
		config := Config{
			Level:      Debug,
			Format:     "console",
			OutputPath: "stdout",
		}

		service, err := NewService(config)

		require.NoError(t, err)
		assert.NotNil(t, service)
	})

	t.Run("file output", func(t *testing.T) {
		tempDir := t.TempDir()
		logFile := filepath.Join(tempDir, "test.log")

		config := Config{
			Level:      Warn,
			Format:     "json",
			OutputPath: logFile,
		}

		service, err := NewService(config)

		require.NoError(t, err)
		assert.NotNil(t, service)

		service.Warn("test log entry")
		service.Sync()

		_, err = os.Stat(logFile)
		assert.NoError(t, err)
	})
}

func TestService_NilSafety(t *testing.T) {
	var service *Service

	assert.Nil(t, service.Logger())
	assert.Nil(t, service.Sugar())
	assert.NotPanics(t, func() {
		service.Debug("debug")
		service.Info("info")
		service.Warn("warn")
		service.Error("error")
		service.Infow("infow", "key", "value")
	})
	assert.NoError(t, service.Sync())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		expected zapcore.Level
	}{
		{"debug", Debug, zapcore.DebugLevel},
		{"info", Info, zapcore.InfoLevel},
		{"warn", Warn, zapcore.WarnLevel},
		{"error", Error, zapcore.ErrorLevel},
		{"unknown defaults to info", LogLevel("verbose"), zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.level))
		})
	}
}
