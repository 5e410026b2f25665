// Package logging sets up the charmbracelet/log logger shared by every
// command. Everything is written at debug level to <init>/.log/mlhub.log;
// with --debug the same records are mirrored onto stderr.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

const (
	// DirName is the log directory under the package root.
	DirName = ".log"
	// FileName is the log file inside DirName.
	FileName = "mlhub.log"
)

// New creates a logger with timestamp formatting that writes to w and
// filters messages at level.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           level,
		Prefix:          "mlhub",
	})
}

// Path returns the log file location for the given package root.
func Path(initDir string) string {
	return filepath.Join(initDir, DirName, FileName)
}

// Open creates the log directory and returns a debug-level logger appending
// to the log file. When debug is set, records also go to stderr. The
// returned closer releases the file.
func Open(initDir string, debug bool, stderr io.Writer) (*log.Logger, io.Closer, error) {
	dir := filepath.Join(initDir, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log dir %s: %w", dir, err)
	}

	f, err := os.OpenFile(Path(initDir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	var w io.Writer = f
	if debug {
		w = io.MultiWriter(f, stderr)
	}
	return New(w, log.DebugLevel), f, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return New(io.Discard, log.FatalLevel)
}

type ctxKey int

const loggerKey ctxKey = 0

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves the logger from ctx, falling back to a discarding
// logger so callers never need a nil check.
func FromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
			return l
		}
	}
	return Discard()
}
