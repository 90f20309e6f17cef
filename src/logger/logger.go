package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// -----------------------------------------------------------------------------

var (
	base     *logrus.Logger
	baseOnce sync.Once
)

func baseLogger() *logrus.Logger {
	baseOnce.Do(func() {
		l := logrus.New()
		l.SetOutput(os.Stdout)
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
		l.SetLevel(logrus.InfoLevel)
		base = l
	})
	return base
}

// SetLevel adjusts the shared log level from its config string.
// Unknown values fall back to info.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	baseLogger().SetLevel(parsed)
}

// -----------------------------------------------------------------------------

// Logger provides structured logging for one named component.
type Logger struct {
	name  string
	entry *logrus.Entry
}

// NewLogger creates a new Logger instance
func NewLogger(name string) *Logger {
	return &Logger{
		name:  name,
		entry: baseLogger().WithField("component", name),
	}
}

// -----------------------------------------------------------------------------

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs warning messages
func (l *Logger) Warning(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}
