// Package logger provides leveled debug logging for the dcvkit CLIs,
// backed by logrus.
//
// Debug output goes to stderr, separate from the user-facing output that
// goes to stdout. This keeps verbose diagnostics from interfering with
// normal CLI output or JSON formatting. The persistent activity log of
// vendor API calls is a different concern and lives in internal/runlog.
//
// Initialize from the --verbose flag:
//
//	logger.Init(verbose) // verbose=true enables Debug and Info
//
// By default only Warn and Error messages are shown.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Global logger instance.
var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Init initializes the global logger with the specified verbosity.
// When verbose is true, Debug and Info levels are enabled.
func Init(verbose bool) {
	if verbose {
		std.SetLevel(logrus.DebugLevel)
	} else {
		std.SetLevel(logrus.WarnLevel)
	}
}

// SetOutput sets the output destination for the global logger.
// Useful for testing. Default is os.Stderr.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Verbose reports whether debug logging is currently enabled.
func Verbose() bool {
	return std.IsLevelEnabled(logrus.DebugLevel)
}

// Debug logs a debug message. Only shown when verbose mode is enabled.
func Debug(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

// Info logs an informational message. Only shown when verbose mode is enabled.
func Info(format string, args ...interface{}) {
	std.Infof(format, args...)
}

// Warn logs a warning message. Always shown regardless of verbose mode.
func Warn(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

// Error logs an error message. Always shown regardless of verbose mode.
func Error(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// DebugFields logs a debug message with structured fields.
func DebugFields(msg string, fields map[string]interface{}) {
	std.WithFields(logrus.Fields(fields)).Debug(msg)
}

// InfoFields logs an informational message with structured fields.
func InfoFields(msg string, fields map[string]interface{}) {
	std.WithFields(logrus.Fields(fields)).Info(msg)
}

// WarnFields logs a warning message with structured fields.
func WarnFields(msg string, fields map[string]interface{}) {
	std.WithFields(logrus.Fields(fields)).Warn(msg)
}

// ErrorFields logs an error message with structured fields.
func ErrorFields(msg string, fields map[string]interface{}) {
	std.WithFields(logrus.Fields(fields)).Error(msg)
}

// LogError logs an error with additional context message.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	std.WithError(err).Error(msg)
}
