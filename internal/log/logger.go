// Package log implements the leveled logger used throughout rawmouse. Logs
// are written to the console and, when configured, a log file. Console output
// goes to standard error; standard output is reserved for the motion delta
// lines.
package log

import (
	"fmt"
	"os"
	"strings"
)

type LogLevel int

// The level of visibility of the log output. ERROR is the lowest level,
// VERBOSE is the highest.
const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
	VERBOSE
)

var levelNames = []string{"ERROR", "WARN", "INFO", "DEBUG", "VERBOSE"}

// LevelFromName converts a (case-insensitive) level name into a LogLevel.
func LevelFromName(name string) (LogLevel, bool) {
	for i, n := range levelNames {
		if strings.EqualFold(name, n) {
			return LogLevel(i), true
		}
	}
	return INFO, false
}

// Logger writes leveled log messages to its sinks. It handles its internal
// errors, so callers do not have to catch any.
type Logger struct {
	level LogLevel
	sinks []Sink
}

// DefaultLogger creates a Logger with a console sink and, if filePath is not
// blank, a file sink.
func DefaultLogger(level LogLevel, filePath string) Logger {
	sinks := []Sink{NewConsole(DefaultFormatter())}
	if filePath != "" {
		file, err := NewFile(filePath, DefaultFormatter())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Couldn't create log file: %s\n", err)
			os.Exit(1)
		}
		sinks = append(sinks, file)
	}
	return Logger{level: level, sinks: sinks}
}

// SetLevel sets the log visibility level of the Logger instance.
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// Level returns the current log visibility level.
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) write(level LogLevel, message string, args ...any) {
	if l.level < level {
		return
	}
	msg := fmt.Sprintf(message, args...)
	for _, sink := range l.sinks {
		if err := sink.Write(levelNames[level], msg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed log write: %s\n", err)
		}
	}
}

// Error prints out the error message passed to the sinks. Errors are always
// printed regardless of level.
func (l *Logger) Error(message string, args ...any) {
	l.write(ERROR, message, args...)
}

// Warn prints out the warning message passed to the sinks.
func (l *Logger) Warn(message string, args ...any) {
	l.write(WARN, message, args...)
}

// Info prints out the information passed to the sinks.
func (l *Logger) Info(message string, args ...any) {
	l.write(INFO, message, args...)
}

// Debug prints out the debug message passed to the sinks.
func (l *Logger) Debug(message string, args ...any) {
	l.write(DEBUG, message, args...)
}

// Verbose prints out the message passed to the sinks.
func (l *Logger) Verbose(message string, args ...any) {
	l.write(VERBOSE, message, args...)
}

// Close closes any sinks holding file handles.
func (l *Logger) Close() {
	for _, sink := range l.sinks {
		if closer, ok := sink.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to close log sink: %s\n", err)
			}
		}
	}
}
