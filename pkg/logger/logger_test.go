package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestInfoOnlyInVerboseMode(t *testing.T) {
	var quiet, loud bytes.Buffer

	NewLoggerWithWriter(LevelInfo, false, &quiet).Info("hello %d", 1)
	NewLoggerWithWriter(LevelInfo, true, &loud).Info("hello %d", 1)

	assert.Empty(t, quiet.String())
	assert.Contains(t, loud.String(), "hello 1")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(LevelWarn, true, &buf)

	l.Debug("debug line")
	l.Info("info line")
	l.Warn("warn line")
	l.Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")

	buf.Reset()
	l.SetLevel(LevelDebug)
	l.Debug("debug again")
	assert.Contains(t, buf.String(), "debug again")
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(LevelInfo, false, &buf)

	l.Progress("🔍", "hidden")
	l.ProgressAlways("✅", "done %s", "now")

	assert.Equal(t, "✅ done now\n", buf.String())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("unknown"))
}
