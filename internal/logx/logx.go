// Package logx builds the studio's zerolog loggers: JSON lines into a
// timestamped file under the project's logs directory, optionally mirrored
// to a console writer.
package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"clipstudio/internal/paths"
)

// Options tune New.
type Options struct {
	Level string
	// Console mirrors log lines to this writer in human-readable form.
	Console io.Writer
}

// New creates a logger that writes to a timestamped file inside the project's
// logs directory. The returned closer should be closed when logging is no
// longer needed.
func New(p paths.ProjectPaths, opts Options) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(p.LogsDir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	filename := time.Now().Format("20060102-150405") + ".log"
	filePath := filepath.Join(p.LogsDir, filename)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	writers := []io.Writer{file}
	if opts.Console != nil {
		writers = append(writers, ConsoleWriter(opts.Console))
	}
	return NewLogger(ParseLevel(opts.Level), writers...), file, nil
}

// NewLogger creates a timestamped logger over one or more writers.
func NewLogger(level zerolog.Level, writers ...io.Writer) zerolog.Logger {
	var out io.Writer
	switch len(writers) {
	case 0:
		return zerolog.Nop()
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// ConsoleWriter formats log lines for a terminal.
func ConsoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
}

// WithComponent creates a child logger with a component field.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
