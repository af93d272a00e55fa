package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.trai.ch/forge/internal/adapters/logger"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, slog.LevelInfo)

	l.Info("building", "command", "c1")
	l.Warn("slow command", "command", "c1")
	l.Error("command failed", "exit_code", 1)

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "msg=building")
	assert.Contains(t, out, "command=c1")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "exit_code=1")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, slog.LevelWarn)

	l.Info("hidden")
	l.Error("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}
