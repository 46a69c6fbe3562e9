// Package logger wraps logrus with the small leveled-entry surface the
// runtime and its tools use. Each Logger carries a "service" field so the
// simulated kernel, the stress driver and the CLI can be told apart in
// shared output.
package logger

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Level mirrors the logrus severity levels.
type Level uint32

const (
	PanicLevel = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

var (
	// Defaults for newly created loggers. The runtime is silent unless a
	// consumer raises the level.
	logLevel  Level         = ErrorLevel
	logFormat log.Formatter = &log.TextFormatter{}
)

// Logger is a leveled logger bound to a named service.
type Logger struct {
	entry *log.Entry
}

// SetLevelAndFormat changes the defaults applied to loggers created after
// this call.
func SetLevelAndFormat(l Level, formatter log.Formatter) {
	logLevel = l
	logFormat = formatter
}

// NewLogger creates a logger tagged with the given service name.
func NewLogger(service string) *Logger {
	l := log.New()
	l.SetFormatter(logFormat)
	logger := &Logger{
		entry: l.WithField("service", service),
	}
	logger.SetLevel(logLevel)
	return logger
}

func (l *Logger) SetOutput(output io.Writer) {
	l.entry.Logger.SetOutput(output)
}

func (l *Logger) SetLevel(level Level) {
	l.entry.Logger.SetLevel(log.Level(level))
}

func (l *Logger) Debug(args ...interface{}) {
	l.entry.Debug(args...)
}

func (l *Logger) Info(args ...interface{}) {
	l.entry.Info(args...)
}

func (l *Logger) Warn(args ...interface{}) {
	l.entry.Warn(args...)
}

func (l *Logger) Error(args ...interface{}) {
	l.entry.Error(args...)
}

func (l *Logger) Tracef(format string, args ...interface{}) {
	l.entry.Tracef(format, args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}
