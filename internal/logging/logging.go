package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type Options struct {
	Level  string
	Format string
	// File receives log output. The terminal UI owns stdout, so logs only
	// reach the screen when File is empty and the UI is not running.
	File string
}

func New(w io.Writer, opts Options) (*log.Logger, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}

	formatter, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "taskpad",
	}), nil
}

// Open is New with output sent to opts.File, or to fallback when no file is
// configured. The returned close func releases the file.
func Open(opts Options, fallback io.Writer) (*log.Logger, func() error, error) {
	if opts.File == "" {
		logger, err := New(fallback, opts)
		return logger, func() error { return nil }, err
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger, err := New(f, opts)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, f.Close, nil
}

// WithSession tags every line from the returned logger with a fresh session
// id, so interleaved runs against the same storage can be told apart.
func WithSession(logger *log.Logger) (*log.Logger, string) {
	id := uuid.NewString()
	return logger.With("session", id), id
}

func Discard() *log.Logger {
	return log.New(io.Discard)
}

func parseFormat(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return 0, fmt.Errorf("unknown log format %q", format)
	}
}
