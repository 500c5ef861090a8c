// Package logger provides the leveled and progress logging used across docrag.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log level names
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Logger wraps a zap sugared logger. Info messages are only emitted in verbose
// mode; progress lines are written plainly to the progress writer.
type Logger struct {
	sugar   *zap.SugaredLogger
	level   zap.AtomicLevel
	verbose bool
	out     io.Writer
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	MessageKey:     "message",
	CallerKey:      "caller",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.RFC3339TimeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// NewLogger creates a new logger with specified level and verbose mode
func NewLogger(level string, verbose bool) *Logger {
	return newLogger(level, verbose, os.Stderr, os.Stdout)
}

// NewLoggerWithWriter sends both log records and progress lines to w
func NewLoggerWithWriter(level string, verbose bool, w io.Writer) *Logger {
	return newLogger(level, verbose, w, w)
}

func newLogger(level string, verbose bool, logOut, progressOut io.Writer) *Logger {
	atomicLevel := zap.NewAtomicLevelAt(parseLogLevel(level))
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(logOut),
		atomicLevel,
	)
	return &Logger{
		sugar:   zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar(),
		level:   atomicLevel,
		verbose: verbose,
		out:     progressOut,
	}
}

// Debug logs debug information (only in debug mode)
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs informational messages (only in verbose mode)
func (l *Logger) Info(format string, args ...interface{}) {
	if l.verbose {
		l.sugar.Infof(format, args...)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// ProgressAlways prints milestones users should see regardless of verbose mode
func (l *Logger) ProgressAlways(emoji, format string, args ...interface{}) {
	fmt.Fprintf(l.out, "%s %s\n", emoji, fmt.Sprintf(format, args...))
}

// Progress prints step-by-step details (only in verbose mode)
func (l *Logger) Progress(emoji, format string, args ...interface{}) {
	if l.verbose {
		fmt.Fprintf(l.out, "%s %s\n", emoji, fmt.Sprintf(format, args...))
	}
}

// SetLevel changes the minimum level at runtime
func (l *Logger) SetLevel(level string) {
	l.level.SetLevel(parseLogLevel(level))
}

// Sync flushes buffered log records
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// Fatal logs a fatal error and exits the program
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.sugar.Fatalf(format, args...)
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return NewLoggerWithWriter(LevelError, false, io.Discard)
}
