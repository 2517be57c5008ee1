package log

import (
	"fmt"
	"os"
)

// Sink receives formatted log entries. Console and File are the two
// implementations.
type Sink interface {
	Write(level string, message string) error
}

// Console is a Sink that writes to standard error using its formatter.
type Console struct {
	formatter Formatter
}

// NewConsole creates a console sink with the given formatter.
func NewConsole(formatter Formatter) *Console {
	return &Console{formatter: formatter}
}

// Write writes the formatted output to standard error.
func (c *Console) Write(level string, message string) error {
	formatted, err := c.formatter.Format(level, message)
	if err != nil {
		return fmt.Errorf("format failed: %w", err)
	}
	if _, err = fmt.Fprint(os.Stderr, formatted); err != nil {
		return fmt.Errorf("unable to write to console: %w", err)
	}
	return nil
}

// File is a Sink that writes to a log file using its formatter.
type File struct {
	logFile   *os.File
	formatter Formatter
}

// NewFile creates a file sink. The file is opened with write-only, truncate
// and create flags and with mode 0644 (before umask).
func NewFile(path string, formatter Formatter) (*File, error) {
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &File{logFile: logFile, formatter: formatter}, nil
}

// Write writes the formatted output to the log file.
func (f *File) Write(level string, message string) error {
	formatted, err := f.formatter.Format(level, message)
	if err != nil {
		return fmt.Errorf("format failed: %w", err)
	}
	if _, err = f.logFile.WriteString(formatted); err != nil {
		return fmt.Errorf("unable to write to log file: %w", err)
	}
	return nil
}

// Close closes the log file.
func (f *File) Close() error {
	return f.logFile.Close()
}
