// Package logging sets up zerolog for rtrarchive and carries the logger
// through a context.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/rtrarchive/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger zerolog.Logger

func init() {
	defaultLogger, _ = NewLoggerFromConfig(nil)
}

// Default returns the process-wide logger
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Configure builds a logger from cfg and installs it as the default. The
// returned close func flushes and closes a file output.
func Configure(cfg *model.LogConfig) (zerolog.Logger, func() error) {
	logger, closeFn := NewLoggerFromConfig(cfg)
	SetDefault(logger)
	return logger, closeFn
}

// NewLoggerFromConfig creates a logger from configuration. A nil config
// yields an info-level logger on stderr. The close func is a no-op unless
// the output is a file.
func NewLoggerFromConfig(cfg *model.LogConfig) (zerolog.Logger, func() error) {
	if cfg == nil {
		cfg = &model.DefaultConfig().Log
	}

	level := ParseLevel(cfg.Level)
	out, closeFn := writer(cfg)

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()

	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}

	return logger, closeFn
}

func nopClose() error { return nil }

func writer(cfg *model.LogConfig) (io.Writer, func() error) {
	var out io.Writer
	closeFn := nopClose
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	case "discard", "none":
		return io.Discard, nopClose
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			out = os.Stderr
		} else {
			out = f
			closeFn = func() error {
				if err := f.Sync(); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			}
		}
	}

	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if f, ok := out.(*os.File); ok && isTerminal(f) {
			format = "console"
		}
	}

	if format == "console" || format == "pretty" {
		return zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}, closeFn
	}
	return out, closeFn
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "warning":
		return zerolog.WarnLevel
	case "disabled", "none", "off":
		return zerolog.Disabled
	}
	if l, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil && level != "" {
		return l
	}
	return zerolog.InfoLevel
}
