package log

import (
	"fmt"
	"strings"
	"time"
)

// Formatter is used by the sinks to format a log entry before printing. It is
// initialized with a format string that can use certain variables:
// `{ascTime}` - the time of the log print in human readable form,
// `{level}` - the visibility level of the log,
// `{message}` - the log message itself. This is a compulsory variable.
type Formatter struct {
	formatStr string
}

// DefaultFormatter creates a Formatter instance with a pre-defined format
// string.
func DefaultFormatter() Formatter {
	return Formatter{formatStr: "{ascTime}: [{level}] - {message}"}
}

// NewFormatter creates a Formatter instance with a user-defined format
// string.
func NewFormatter(formatStr string) Formatter {
	return Formatter{formatStr: formatStr}
}

// Format replaces all variables in the format string with their values and
// returns the finished entry, newline included.
func (f *Formatter) Format(level string, message string) (string, error) {
	if !strings.Contains(f.formatStr, "{message}") {
		return "", fmt.Errorf("missing `message` variable in format string")
	}
	replacer := strings.NewReplacer(
		"{ascTime}", time.Now().Format(time.RFC3339),
		"{level}", level,
		"{message}", message,
	)
	return replacer.Replace(f.formatStr) + "\n", nil
}
