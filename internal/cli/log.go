// Package cli implements lanectl, the operator console for lane scheduling:
// creating events, driving lane assignment and inspecting bracket layout and
// idle matches without the web server.
package cli

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with short timestamps filtered at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// installLogger routes the services' slog calls through the console logger.
func installLogger(l *log.Logger) {
	slog.SetDefault(slog.New(l))
}
