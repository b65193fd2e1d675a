// Package logger provides leveled event logging for orchestration state
// transitions, plus a separate raw stream for remote script output.
// Components depend on the small Logger interface so tests can swap in
// a buffer implementation.
package logger

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger defines the interface for leveled logging.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Options controls where and how much the file logger writes.
type Options struct {
	Dir      string // log directory; empty disables file logging
	Level    string // DEBUG, INFO, WARN, ERROR
	MaxSize  int    // megabytes per file before rotation
	MaxFiles int    // rotated files to keep
}

// MainLogName is the event log file name.
const MainLogName = "sofilab.log"

// ErrorLogName is the error-only log file name.
const ErrorLogName = "sofilab-error.log"

// fileLogger writes leveled events through logrus to rotating files.
// Errors additionally go to a separate error-only file.
type fileLogger struct {
	log    *logrus.Logger
	errLog *logrus.Logger
}

// New creates a file-backed logger. When opts.Dir is empty all events are
// discarded (logging disabled in config).
func New(opts Options) Logger {
	if opts.Dir == "" {
		return Noop()
	}

	level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}

	main := logrus.New()
	main.SetLevel(level)
	main.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})
	main.SetOutput(rotatingFile(filepath.Join(opts.Dir, MainLogName), opts))

	errOnly := logrus.New()
	errOnly.SetLevel(logrus.ErrorLevel)
	errOnly.SetFormatter(main.Formatter)
	errOnly.SetOutput(rotatingFile(filepath.Join(opts.Dir, ErrorLogName), opts))

	return &fileLogger{log: main, errLog: errOnly}
}

func rotatingFile(path string, opts Options) io.Writer {
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = 10
	}
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: maxFiles,
	}
}

func (l *fileLogger) Debug(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func (l *fileLogger) Info(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

func (l *fileLogger) Warn(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

func (l *fileLogger) Error(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
	l.errLog.Errorf(format, args...)
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing.
type BufferLogger struct {
	Messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		Messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) Debug(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "debug", Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Info(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "info", Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Warn(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "warn", Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Error(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "error", Message: fmt.Sprintf(format, args...)})
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Messages {
		if strings.EqualFold(m.Level, level) {
			return true
		}
	}
	return false
}

// Contains returns true if any captured message contains the substring.
func (l *BufferLogger) Contains(substr string) bool {
	for _, m := range l.Messages {
		if strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.Messages = l.Messages[:0]
}
