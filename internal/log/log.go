// Package log provides structured debug logging for ralph.
// Lines carry a level, a category, the run id and key=value fields, and are
// appended to <root>/.ralph/debug.log when --debug or RALPH_DEBUG is set.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
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

// Category groups related log messages.
type Category string

const (
	CatLoop     Category = "loop"     // Iteration loop transitions
	CatPRD      Category = "prd"      // Task list loading
	CatAgent    Category = "agent"    // Claude subprocess invocations
	CatScaffold Category = "scaffold" // Bootstrap and git init
	CatEditor   Category = "editor"   // Brain-dump editor sessions
	CatConfig   Category = "config"   // Configuration loading
)

// Logger provides structured logging.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	writer   io.Writer
	runID    string
	minLevel Level
}

var (
	mu            sync.Mutex
	defaultLogger *Logger
)

// Init opens (or creates) the log file at path and makes it the global logger.
// Returns a cleanup function to close the log file.
func Init(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	setDefault(&Logger{file: f, writer: f, runID: uuid.NewString(), minLevel: LevelDebug})

	return func() {
		setDefault(nil)
		_ = f.Close()
	}, nil
}

// InitWriter routes log output to w. Used by tests.
func InitWriter(w io.Writer) func() {
	setDefault(&Logger{writer: w, runID: uuid.NewString(), minLevel: LevelDebug})
	return func() { setDefault(nil) }
}

func setDefault(l *Logger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

func current() *Logger {
	mu.Lock()
	defer mu.Unlock()
	return defaultLogger
}

// RunID returns the id attached to every line of this process's log output.
func RunID() string {
	if l := current(); l != nil {
		return l.runID
	}
	return ""
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	log(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	log(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	log(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	log(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	log(LevelError, cat, msg, fields...)
}

func log(level Level, cat Category, msg string, fields ...any) {
	l := current()
	if l == nil || level < l.minLevel {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// 2026-01-02T15:04:05 [WARN] [prd] message run=<uuid> key=value
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s run=%s", time.Now().Format("2006-01-02T15:04:05"), level, cat, msg, l.runID)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=", fields[len(fields)-1])
	}
	b.WriteByte('\n')

	_, _ = io.WriteString(l.writer, b.String())
}
