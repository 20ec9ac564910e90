package telemetry

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLogger(t *testing.T) {
	logger := &DefaultLogger{}

	// These only need to not panic.
	logger.Debugf("debug message: %s", "test")
	logger.Infof("info message: %s", "test")
	logger.Warnf("warn message: %s", "test")
	logger.Errorf("error message: %s", "test")

	var nop Logger = NopLogger{}
	nop.Errorf("dropped: %s", "test")
}

func TestZapLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := NewZapLogger(zap.New(core).Sugar())

	logger.Debugf("debug message: %s", "test")
	assert.Equal(t, 0, recorded.Len(), "Debug message should not be recorded at Info level")

	logger.Infof("info message: %s", "test")
	logger.Warnf("warn message: %s", "test")
	logger.Errorf("error message: %s", "test")

	entries := recorded.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "info message: test", entries[0].Message)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "error message: test", entries[2].Message)
	}
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Debugf("debug message: %s", "test")
	logger.Infof("info message: %s", "test")
	logger.Warnf("warn message: %s", "test")
	logger.Errorf("error message: %s", "test")

	logOutput := buf.String()
	assert.Contains(t, logOutput, "debug message: test")
	assert.Contains(t, logOutput, "info message: test")
	assert.Contains(t, logOutput, "warn message: test")
	assert.Contains(t, logOutput, "error message: test")
}

func TestLogrusLogger(t *testing.T) {
	var buf bytes.Buffer

	logrusLogger := logrus.New()
	logrusLogger.Out = &buf
	logrusLogger.Level = logrus.InfoLevel

	logger := NewLogrusLogger(logrusLogger)

	logger.Debugf("debug message: %s", "test")
	logger.Infof("info message: %s", "test")
	logger.Warnf("warn message: %s", "test")
	logger.Errorf("error message: %s", "test")

	output := buf.String()
	assert.NotContains(t, output, "debug message: test", "Debug messages should not be logged at Info level")
	assert.Contains(t, output, "info message: test")
	assert.Contains(t, output, "warn message: test")
	assert.Contains(t, output, "error message: test")
	assert.Contains(t, output, "component=jwks")

	buf.Reset()
	logrusLogger.Level = logrus.DebugLevel
	logger.Debugf("debug message: %s", "test")
	assert.Contains(t, buf.String(), "debug message: test", "Debug messages should be logged at Debug level")
}
