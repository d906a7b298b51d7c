// Package runlog writes the persistent activity log. Every command run
// gets a UUID and appends structured JSON lines to a size-rotated file,
// so validation changes made months ago can still be traced.
package runlog

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger records command activity to the rotating log file.
type Logger struct {
	log   *logrus.Logger
	runID string
	cmd   string
}

// Options controls where and how much the run log writes.
type Options struct {
	Dir        string // log directory, created if missing
	MaxSizeMB  int    // rotate after this many megabytes (default 10)
	MaxBackups int    // rotated files kept (default 5)
	MaxAgeDays int    // rotated files kept this many days (default 90)
}

// New opens the run log for a command invocation and assigns it a run ID.
func New(cmd string, opts Options) (*Logger, error) {
	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 5
	}
	if opts.MaxAgeDays == 0 {
		opts.MaxAgeDays = 90
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	log.SetLevel(logrus.InfoLevel)
	log.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "dcvkit.log"),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	})

	l := &Logger{log: log, runID: uuid.NewString(), cmd: cmd}
	l.entry().Info("run started")
	return l, nil
}

// Discard returns a Logger that writes nowhere. Used in tests and by
// commands that only read data.
func Discard() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return &Logger{log: log, runID: uuid.NewString(), cmd: "discard"}
}

// RunID returns the UUID assigned to this invocation.
func (l *Logger) RunID() string {
	return l.runID
}

func (l *Logger) entry() *logrus.Entry {
	return l.log.WithFields(logrus.Fields{
		"run_id":  l.runID,
		"command": l.cmd,
	})
}

// Event records a domain-level action, e.g. a record publish or a DCV
// method change.
func (l *Logger) Event(action, domain string, fields map[string]interface{}) {
	e := l.entry().WithFields(logrus.Fields{"action": action, "domain": domain})
	if fields != nil {
		e = e.WithFields(logrus.Fields(fields))
	}
	e.Info("event")
}

// APICall records an outbound vendor API call and its outcome.
func (l *Logger) APICall(service, method, url string, status int, elapsed time.Duration) {
	l.entry().WithFields(logrus.Fields{
		"service":    service,
		"method":     method,
		"url":        url,
		"status":     status,
		"elapsed_ms": elapsed.Milliseconds(),
	}).Info("api call")
}

// Error records a failure with its originating action.
func (l *Logger) Error(action string, err error) {
	l.entry().WithFields(logrus.Fields{
		"action": action,
		"error":  err.Error(),
	}).Error("run error")
}

// Close records run completion. lumberjack closes lazily, so this only
// emits the final line.
func (l *Logger) Close() {
	l.entry().Info("run finished")
}
