// Package applog adapts github.com/charmbracelet/log to client.Logger,
// the minimal Printf-shaped sink the session engine logs protocol
// violations through.
package applog

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger wraps a *log.Logger to satisfy client.Logger's single-method
// Printf interface, routing through it at info level.
type Logger struct {
	*log.Logger
}

// New creates a Logger writing to stderr, at debug level when debug is
// true and info level otherwise.
func New(debug bool) *Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
	})
	if debug {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetLevel(log.InfoLevel)
	}
	return &Logger{Logger: l}
}

// Printf implements client.Logger.
func (l *Logger) Printf(format string, args ...any) {
	l.Logger.Infof(format, args...)
}
