package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestGetLoggerInitializesOnce(t *testing.T) {
	Logger = nil
	first := GetLogger()
	assert.NotNil(t, first)
	assert.Same(t, first, GetLogger())
}

func TestInitLoggerDevelopmentMode(t *testing.T) {
	t.Setenv("LOG_MODE", "development")
	Logger = nil
	InitLogger()
	assert.NotNil(t, Logger)
	assert.True(t, Logger.Core().Enabled(zapcore.DebugLevel))
}
