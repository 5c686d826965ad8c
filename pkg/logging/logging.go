package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// ParseLevel converts a configuration string ("debug", "info", "warn",
// "error") into a LogLevel. Unknown values map to LevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Output formats supported by Init.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// Init initializes the process-wide logger. format is FormatText or
// FormatJSON; anything else falls back to text. It should be called once at
// startup, before any subsystem logs.
func Init(level LogLevel, format string, output io.Writer) {
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: level.SlogLevel(), // This sets the minimum level for the handler
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	logger := slog.New(handler)

	mu.Lock()
	defaultLogger = logger
	mu.Unlock()

	slog.SetDefault(logger) // Set for any global slog calls if necessary
}

// InitForCLI initializes text logging at the given level.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	Init(filterLevel, FormatText, output)
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func logInternal(level LogLevel, subsystem string, err error, attrs []slog.Attr, messageFmt string, args ...interface{}) {
	logger := current()
	if logger == nil {
		// Not initialized yet; keep startup failures visible.
		if level >= LevelWarn {
			fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", level, subsystem, fmt.Sprintf(messageFmt, args...))
		}
		return
	}
	if !logger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	slogAttrs := make([]slog.Attr, 0, len(attrs)+2)
	slogAttrs = append(slogAttrs, slog.String("subsystem", subsystem))
	if err != nil {
		slogAttrs = append(slogAttrs, slog.String("error", err.Error()))
	}
	slogAttrs = append(slogAttrs, attrs...)

	logger.LogAttrs(context.Background(), level.SlogLevel(), msg, slogAttrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, nil, messageFmt, args...)
}

// Logger is a subsystem-bound logger carrying a fixed set of attributes.
// Tool invocations use it so every line of one call shares the tool name
// and invocation id.
type Logger struct {
	subsystem string
	attrs     []slog.Attr
}

// For returns a Logger bound to subsystem.
func For(subsystem string) *Logger {
	return &Logger{subsystem: subsystem}
}

// With returns a copy of l with additional key/value attributes.
func (l *Logger) With(key string, value any) *Logger {
	attrs := make([]slog.Attr, len(l.attrs), len(l.attrs)+1)
	copy(attrs, l.attrs)
	return &Logger{subsystem: l.subsystem, attrs: append(attrs, slog.Any(key, value))}
}

func (l *Logger) Debug(messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, l.subsystem, nil, l.attrs, messageFmt, args...)
}

func (l *Logger) Info(messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, l.subsystem, nil, l.attrs, messageFmt, args...)
}

func (l *Logger) Warn(messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, l.subsystem, nil, l.attrs, messageFmt, args...)
}

func (l *Logger) Error(err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, l.subsystem, err, l.attrs, messageFmt, args...)
}

// TruncateSessionID shortens a session id for log output.
func TruncateSessionID(sessionID string) string {
	const keep = 8
	if len(sessionID) <= keep {
		return sessionID
	}
	return sessionID[:keep] + "..."
}
