package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// AccessLogger records client-visible operations, one logfmt line each
type AccessLogger interface {
	// LogAccess logs FTP operations
	LogAccess(operation string, user string, path string, status string, details ...interface{})
	// LogAuth logs authentication attempts
	LogAuth(operation string, user string, status string, details ...interface{})
}

type accessLogger struct {
	logger *log.Logger
}

// NewAccessLogger creates a new access logger. An empty path discards output.
func NewAccessLogger(logPath string) (AccessLogger, error) {
	l := &accessLogger{}
	if err := l.open(logPath); err != nil {
		return nil, err
	}
	return l, nil
}

// NewWriterAccessLogger creates an access logger writing to w
func NewWriterAccessLogger(w io.Writer) AccessLogger {
	return &accessLogger{logger: log.New(w, "", 0)}
}

func (l *accessLogger) open(logPath string) error {
	var writer io.Writer = io.Discard

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return fmt.Errorf("creating access log directory: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("opening access log file: %w", err)
		}
		writer = f
	}

	l.logger = log.New(writer, "", 0)
	return nil
}

func (l *accessLogger) LogAccess(operation string, user string, path string, status string, details ...interface{}) {
	parts := []string{"op=" + formatValue(operation)}
	if user != "" {
		parts = append(parts, "user="+formatValue(user))
	}
	if path != "" {
		parts = append(parts, "path="+formatValue(path))
	}
	parts = append(parts, "status="+formatValue(status))
	parts = append(parts, formatPairs(details)...)

	l.logger.Printf("%s %s", timestamp(), strings.Join(parts, " "))
}

func (l *accessLogger) LogAuth(operation string, user string, status string, details ...interface{}) {
	l.LogAccess(operation, user, "", status, details...)
}
