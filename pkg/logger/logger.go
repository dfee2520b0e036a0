// pkg/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger is a wrapper around the standard log.Logger
type Logger struct {
	*log.Logger
	debug bool
}

// New creates a new logger instance writing to stdout with a standard prefix.
func New(prefix string) *Logger {
	return NewWithWriter(os.Stdout, prefix)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, prefix string) *Logger {
	return &Logger{
		Logger: log.New(w, prefix, log.LstdFlags|log.Lmsgprefix),
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return NewWithWriter(io.Discard, "")
}

// SetDebug toggles Debug output.
func (l *Logger) SetDebug(on bool) { l.debug = on }

// Info logs an informational message.
func (l *Logger) Info(v ...interface{}) {
	l.emit("INFO: ", fmt.Sprintln(v...))
}

// Error logs an error message.
func (l *Logger) Error(v ...interface{}) {
	l.emit("ERROR: ", fmt.Sprintln(v...))
}

// Warn logs a warning message.
func (l *Logger) Warn(v ...interface{}) {
	l.emit("WARN: ", fmt.Sprintln(v...))
}

// Debug logs only when debug output is enabled.
func (l *Logger) Debug(v ...interface{}) {
	if l.debug {
		l.emit("DEBUG: ", fmt.Sprintln(v...))
	}
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.emit("INFO: ", fmt.Sprintf(format, v...))
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.emit("ERROR: ", fmt.Sprintf(format, v...))
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.emit("WARN: ", fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.debug {
		l.emit("DEBUG: ", fmt.Sprintf(format, v...))
	}
}

// emit writes one line with the level in front of the message.
func (l *Logger) emit(level, msg string) {
	_ = l.Output(3, level+msg)
}
