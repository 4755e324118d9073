package logger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of a log level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
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

// ParseLevel parses a string into a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// MaxLines is the maximum number of lines kept in a file-backed log
// before it is trimmed from the top.
const MaxLines = 5000

// Logger is a leveled logger over a single file handle. When the file
// grows past MaxLines lines it is rewritten keeping only the tail.
type Logger struct {
	file      *os.File
	lineCount int
	level     Level
	mu        sync.Mutex
}

var global *Logger

// fallback is used before Init, writing to stderr without rotation.
var fallback = &Logger{file: os.Stderr, level: LevelInfo}

// Init installs a global logger writing to file at the given level and
// returns it. Callers should defer Close on the returned logger.
func Init(file *os.File, level Level) *Logger {
	l := &Logger{file: file, level: level}
	l.countExistingLines()
	global = l
	return l
}

// SetLevel changes the logger's level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetGlobalLevel changes the level of the global logger, if installed.
func SetGlobalLevel(level Level) {
	if global != nil {
		global.SetLevel(level)
	}
}

func (l *Logger) enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) log(level Level, format string, v ...any) {
	if !l.enabled(level) {
		return
	}
	msg := fmt.Sprintf("%s [%s] %s\n",
		time.Now().Format("2006/01/02 15:04:05"), level, fmt.Sprintf(format, v...))
	l.Write([]byte(msg))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, v ...any) { l.log(LevelDebug, format, v...) }

// Info logs an info message.
func (l *Logger) Info(format string, v ...any) { l.log(LevelInfo, format, v...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, v ...any) { l.log(LevelWarn, format, v...) }

// Error logs an error message.
func (l *Logger) Error(format string, v ...any) { l.log(LevelError, format, v...) }

// Fatal logs an error message and exits with code 1.
func (l *Logger) Fatal(format string, v ...any) {
	l.log(LevelError, format, v...)
	os.Exit(1)
}

func active() *Logger {
	if global != nil {
		return global
	}
	return fallback
}

// Package-level logging functions using the global logger, or stderr
// before Init has run.

func Debug(format string, v ...any) { active().Debug(format, v...) }
func Info(format string, v ...any)  { active().Info(format, v...) }
func Warn(format string, v ...any)  { active().Warn(format, v...) }
func Error(format string, v ...any) { active().Error(format, v...) }
func Fatal(format string, v ...any) { active().Fatal(format, v...) }

var noop = func() {}

// Trace returns a function that logs the elapsed time of an operation
// when called. It is a no-op unless trace level is enabled.
// Usage: defer logger.Trace("rewrite")()
func Trace(name string) func() {
	l := active()
	if !l.enabled(LevelTrace) {
		return noop
	}
	start := time.Now()
	return func() {
		l.log(LevelTrace, "%s: %v", name, time.Since(start))
	}
}

// Write implements io.Writer so the logger can back the stdlib log
// package. Writes count lines and trigger rotation past MaxLines.
func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.file.Write(p)
	if err != nil {
		return n, err
	}

	l.lineCount += strings.Count(string(p), "\n")
	if l.lineCount > MaxLines && l.file != os.Stderr {
		l.trim()
	}
	return n, err
}

// countExistingLines counts lines already present in the log file so a
// reopened log rotates at the right point.
func (l *Logger) countExistingLines() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == os.Stderr {
		return
	}
	l.file.Seek(0, 0)
	scanner := bufio.NewScanner(l.file)
	count := 0
	for scanner.Scan() {
		count++
	}
	l.lineCount = count
	l.file.Seek(0, 2)
}

// trim rewrites the file keeping only the last MaxLines lines.
func (l *Logger) trim() {
	l.file.Seek(0, 0)
	scanner := bufio.NewScanner(l.file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > MaxLines {
		lines = lines[len(lines)-MaxLines:]
	}

	l.file.Truncate(0)
	l.file.Seek(0, 0)
	for _, line := range lines {
		l.file.WriteString(line + "\n")
	}
	l.lineCount = len(lines)
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	if l.file == os.Stderr {
		return nil
	}
	return l.file.Close()
}
