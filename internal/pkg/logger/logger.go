package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the root logger. format is "json" or "console"; an unknown level
// falls back to info. A non-empty file also receives every line as JSON,
// rotated by size.
func New(level, format, file string) zerolog.Logger {
	if file == "" {
		return NewWithWriter(os.Stdout, level, format)
	}
	return build(parseLevel(level), zerolog.MultiLevelWriter(console(os.Stdout, format), RotatingFile(file)))
}

func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	return build(parseLevel(level), console(w, format))
}

// RotatingFile returns a size-rotated log file writer.
func RotatingFile(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 7,
		MaxAge:     28, // days
		Compress:   true,
	}
}

func build(lvl zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func console(w io.Writer, format string) io.Writer {
	if strings.EqualFold(format, "console") {
		return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return w
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
