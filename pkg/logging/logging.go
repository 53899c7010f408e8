// Package logging configures structured logging for currentsee.
//
// Records go to a colored tint handler on stderr (or JSON when format is "json"),
// and optionally also to a JSON log file. Every handler is wrapped so records
// logged with a correlated context carry a correlation_id attribute.
//
// Usage:
//
//	closeLog, err := logging.Setup(logging.Options{Level: "debug", File: "currentsee.log"})
//	defer closeLog()
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"

	"github.com/mmynk/currentsee/internal/platform/correlation"
)

// Options selects the level, terminal format and optional file sink.
type Options struct {
	Level  string // debug, info, warn, error (default: info)
	Format string // text (tint) or json
	File   string // JSON log file, appended to; empty disables
}

// Setup installs the default slog logger and returns a func that closes the log file.
func Setup(opts Options) (func() error, error) {
	handler, closer, err := NewHandler(os.Stderr, opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(handler))
	return closer, nil
}

// NewHandler builds the handler Setup installs, writing terminal output to w.
func NewHandler(w io.Writer, opts Options) (slog.Handler, func() error, error) {
	level := ParseLevel(opts.Level)

	var terminal slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		terminal = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		terminal = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		})
	}

	if opts.File == "" {
		return correlation.NewHandler(terminal), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	file := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	return correlation.NewHandler(slogmulti.Fanout(terminal, file)), f.Close, nil
}

// ParseLevel maps a level name to a slog.Level, defaulting to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
