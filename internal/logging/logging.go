// Package logging builds the slog logger used by sync passes.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

type Options struct {
	Level string
	// File enables a rotated JSON log file instead of text output on Stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
	Stderr     io.Writer
}

// New returns the logger and a closer for the underlying sink.
func New(options Options) (*slog.Logger, io.Closer) {
	handlerOptions := &slog.HandlerOptions{Level: ParseLevel(options.Level)}

	if file := strings.TrimSpace(options.File); file != "" {
		maxSize := options.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		maxBackups := options.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		sink := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		}
		return slog.New(slog.NewJSONHandler(sink, handlerOptions)), sink
	}

	stderr := options.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	return slog.New(slog.NewTextHandler(stderr, handlerOptions)), nopCloser{}
}

// ParseLevel defaults to INFO for unknown values.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard is used by tests and by callers that do not configure logging.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
