package testhelpers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/wellplan/internal/logging"
)

// NewLogger creates a new logger with the given log sink such as testhelpers.Writer.
func NewLogger(logSink io.Writer) *slog.Logger {
	return logging.NewLogger(logSink, slog.LevelDebug)
}

// NewTestLogger logs through t.Log so that output only shows up for failing tests.
func NewTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return NewLogger(NewWriter(t))
}
