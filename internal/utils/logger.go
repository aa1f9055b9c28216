package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger owns the log file handle behind a *slog.Logger.
type Logger struct {
	*slog.Logger
	file *os.File
}

// LogOptions selects where and how log records are written.
type LogOptions struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is json or text.
	Format string
	// File is the log file. "-" or "stdout" writes to stdout; empty uses
	// the default log file next to the executable.
	File string
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger opens the configured log file for appending. If the file cannot
// be opened, records go to stdout instead.
func NewLogger(opts LogOptions) *Logger {
	logger := &Logger{}
	var out io.Writer = os.Stdout

	switch opts.File {
	case "-", "stdout":
	default:
		path := opts.File
		if path == "" {
			path = DefaultPaths().LogFile()
		}
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file (%s): %v; logging to stdout\n", path, err)
			break
		}
		logger.file = f
		out = f
	}

	logger.Logger = slog.New(NewHandler(out, opts.Format, ParseLevel(opts.Level)))
	return logger
}

// NewHandler builds the record handler. JSON output renames the standard
// keys to timestamp, level and message.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.LevelKey:
				a.Key = "level"
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})
}

// Close closes the underlying log file, if any.
func (l *Logger) Close() {
	if l != nil && l.file != nil {
		l.file.Close()
	}
}

// File returns the underlying log file when records go to one.
func (l *Logger) File() *os.File {
	if l == nil {
		return nil
	}
	return l.file
}
