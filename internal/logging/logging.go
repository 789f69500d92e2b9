// Package logging configures structured logging, optionally to a rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes where logs go.
type Config struct {
	// Filename is the log file. Empty or "-" logs to stderr.
	Filename string `yaml:"filename"`
	// MaxSize is the size in megabytes at which the file is rotated.
	MaxSize int `yaml:"max_size"`
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `yaml:"max_backups"`
	// MaxAge is the number of days to keep rotated files.
	MaxAge   int  `yaml:"max_age"`
	Compress bool `yaml:"compress"`
	// Level is one of DEBUG, INFO, WARN, or ERROR.
	Level string `yaml:"level"`
}

// Default returns a configuration logging INFO and above to stderr.
func Default() Config {
	return Config{
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Level:      "INFO",
	}
}

// Validate checks the log level.
func (c Config) Validate() error {
	_, err := ParseLevel(c.Level)
	return err
}

// ParseLevel parses a level name, ignoring case. The empty string is INFO.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, errors.Errorf("unknown log level %q", s)
	}
}

// New creates a logger for the configuration. The returned closer releases the
// log file, if any.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	var w io.WriteCloser = nopCloser{os.Stderr}
	if cfg.Filename != "" && cfg.Filename != "-" {
		w = &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
	}
	return NewWriter(w, lvl), w, nil
}

// NewWriter creates a text logger writing to w.
func NewWriter(w io.Writer, lvl slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return NewWriter(io.Discard, slog.LevelError+1)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
