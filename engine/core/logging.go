package core

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is the logging context handed to every component at construction.
type Logger struct {
	l *log.Logger
}

type LoggerOptions struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level  string
	Prefix string
	// ReportCaller adds the calling file and line to every entry.
	ReportCaller bool
}

func NewLogger(w io.Writer, opts LoggerOptions) *Logger {
	if w == nil {
		w = os.Stderr
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "Vulcan 🌋 "
	}
	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    opts.ReportCaller,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
	})
	l.SetLevel(ParseLevel(opts.Level))
	if opts.ReportCaller {
		// Skip the Logger wrapper frame.
		l.SetCallerOffset(1)
	}
	return &Logger{l: l}
}

// NewFileLogger tees entries to stderr and to the file at path, truncating it.
func NewFileLogger(path string, opts LoggerOptions) (*Logger, io.Closer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return NewLogger(io.MultiWriter(os.Stderr, f), opts), f, nil
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	return NewLogger(io.Discard, LoggerOptions{Level: "error"})
}

func ParseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func (lg *Logger) Debug(msg string, args ...interface{}) {
	lg.l.Debug(format(msg, args))
}

func (lg *Logger) Info(msg string, args ...interface{}) {
	lg.l.Info(format(msg, args))
}

func (lg *Logger) Warn(msg string, args ...interface{}) {
	lg.l.Warn(format(msg, args))
}

func (lg *Logger) Error(msg string, args ...interface{}) {
	lg.l.Error(format(msg, args))
}

// Critical reports an unrecoverable failure. It does not exit; callers abort
// through their error returns.
func (lg *Logger) Critical(msg string, args ...interface{}) {
	lg.l.Log(log.FatalLevel, format(msg, args))
}

func format(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
