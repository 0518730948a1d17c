package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger
type Logger struct {
	zerolog.Logger
}

// New builds the service logger. Development writes colored console lines,
// everything else writes JSON to stdout. An empty or unknown level falls back
// to debug in development and info elsewhere.
func New(serviceName, environment, level string) *Logger {
	dev := environment == "development"

	var out io.Writer = os.Stdout
	if dev {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	fallback := zerolog.InfoLevel
	if dev {
		fallback = zerolog.DebugLevel
	}

	return NewWithWriter(out, serviceName, ParseLevel(level, fallback))
}

// NewWithWriter logs to w at the given level. The CLI passes stderr here.
func NewWithWriter(w io.Writer, serviceName string, level zerolog.Level) *Logger {
	return &Logger{
		Logger: zerolog.New(w).Level(level).With().Timestamp().Str("service", serviceName).Logger(),
	}
}

// ParseLevel maps a level name to a zerolog level
func ParseLevel(level string, fallback zerolog.Level) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return fallback
	}
	return lvl
}

func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithComponent tags entries with the subsystem that wrote them
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithFile tags entries with the document being processed
func (l *Logger) WithFile(filename string) *Logger {
	return l.with("file", filename)
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With().Str(key, value).Logger()}
}
