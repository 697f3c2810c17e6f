// Package logging builds the structured logger shared by the server and the
// CLI.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w (stderr when nil) at level. Unknown
// levels fall back to info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{ReportTimestamp: true})
	l.SetLevel(ParseLevel(level))
	return l
}

// ParseLevel maps a LOG_LEVEL value to a log.Level.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// With returns a child logger carrying kv on every entry.
func With(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// Discard is a logger that writes nothing. Handy in tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
