package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger("warn", "mini-pos")

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLoggerUnknownLevelFallsBackToInfo(t *testing.T) {
	logger := NewLogger("loud", "mini-pos")

	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
