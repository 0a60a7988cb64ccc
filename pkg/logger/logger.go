package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how verbosely the service logs.
type Options struct {
	Level    string
	File     string // empty: stdout only
	ToStdout bool   // when File is set, also write to stdout
}

// New builds the JSON slog logger used across the service. When a file is
// configured it is rotated by lumberjack.
func New(opts Options) *slog.Logger {
	var out io.Writer = os.Stdout

	if opts.File != "" {
		fileName := opts.File
		if !strings.HasSuffix(fileName, ".log") {
			fileName += ".log"
		}

		rotating := &lumberjack.Logger{
			Filename:   fileName,
			MaxSize:    50, // megabytes
			MaxBackups: 10,
			MaxAge:     90, // days
			Compress:   true,
		}

		if opts.ToStdout {
			out = io.MultiWriter(os.Stdout, rotating)
		} else {
			out = rotating
		}
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: ParseLevel(opts.Level)}))
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
