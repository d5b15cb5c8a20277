package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Key struct{}

var LoggerKey = Key{}

// LevelTrace sits below debug and is used for wire level HTTP logs
const LevelTrace = slog.LevelDebug - 4

// LevelNames is the accepted set of values for the log-level setting
var LevelNames = []string{"trace", "debug", "info", "warn", "error"}

func ConfigLevelStringToSlogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}

// Options configure the process logger.
type Options struct {
	// Level is one of LevelNames
	Level string
	// FilePath receives JSON records. Empty disables the file handler.
	FilePath string
	// Console receives friendly error output. Nil disables it.
	Console io.Writer
}

// New builds the process logger. It returns a close func for the log file.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := ConfigLevelStringToSlogLevel(opts.Level)
	closer := func() error { return nil }

	var primary slog.Handler
	if opts.FilePath != "" {
		path := os.ExpandEnv(opts.FilePath)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, closer, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, closer, fmt.Errorf("open log file: %w", err)
		}
		closer = f.Close
		primary = slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceLevelNames,
		})
	}

	var secondary slog.Handler
	if opts.Console != nil {
		secondary = NewFriendlyErrorHandler(opts.Console)
	}

	return slog.New(NewDualHandler(primary, secondary)), closer, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// FromContext returns the logger stored on ctx or a discarding logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Discard()
}

func replaceLevelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}
