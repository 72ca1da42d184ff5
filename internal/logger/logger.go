// Package logger provides the leveled, structured logger used by the analyzer,
// the session coordinator and the CLI.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level represents the logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

// String returns the string representation of the level
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
	case LevelSilent:
		return "SILENT"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (case-insensitive) into a Level.
// Unknown or empty names map to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "silent", "off", "none":
		return LevelSilent
	default:
		return LevelInfo
	}
}

// Logger provides structured logging with configurable levels
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	WithFields(fields ...Field) Logger
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value any
}

// F is a convenience function for creating fields
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Err is shorthand for F("error", err).
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// output is shared between a logger and everything derived from it with WithFields.
type output struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

type standardLogger struct {
	level  Level
	out    *output
	fields []Field
}

// New creates a logger writing lines at or above level to out.
// Level tags are coloured when out is a terminal.
func New(level Level, out io.Writer) Logger {
	if out == nil {
		out = io.Discard
	}
	return &standardLogger{
		level: level,
		out:   &output{w: out, color: isTerminal(out)},
	}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return New(LevelSilent, io.Discard)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *standardLogger) WithFields(fields ...Field) Logger {
	newFields := make([]Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	return &standardLogger{
		level:  l.level,
		out:    l.out,
		fields: newFields,
	}
}

func (l *standardLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields...)
}

func (l *standardLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

func (l *standardLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

func (l *standardLogger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

func (l *standardLogger) log(level Level, msg string, fields ...Field) {
	if level < l.level || l.level == LevelSilent {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString(" ")
	b.WriteString(l.tag(level))
	b.WriteString(" ")
	b.WriteString(msg)

	if len(l.fields)+len(fields) > 0 {
		b.WriteString(" |")
		for _, field := range l.fields {
			fmt.Fprintf(&b, " %s=%v", field.Key, field.Value)
		}
		for _, field := range fields {
			fmt.Fprintf(&b, " %s=%v", field.Key, field.Value)
		}
	}
	b.WriteString("\n")

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	// Logging must never affect the caller.
	_, _ = io.WriteString(l.out.w, b.String())
}

func (l *standardLogger) tag(level Level) string {
	tag := "[" + level.String() + "]"
	if !l.out.color {
		return tag
	}
	switch level {
	case LevelDebug:
		return color.New(color.FgHiBlack).Sprint(tag)
	case LevelInfo:
		return color.New(color.FgCyan).Sprint(tag)
	case LevelWarn:
		return color.New(color.FgYellow).Sprint(tag)
	case LevelError:
		return color.New(color.FgRed, color.Bold).Sprint(tag)
	default:
		return tag
	}
}
