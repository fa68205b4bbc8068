// Package util provides low-level helpers shared by all other packages.
package util

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

func init() {
	// Per-logger levels decide what is written; the global level must
	// not filter trace output on its own.
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// zerologLevel maps a verbosity to the minimum zerolog level written.
func (l LogLevel) zerologLevel() zerolog.Level {
	switch {
	case l <= LogQuiet:
		return zerolog.ErrorLevel
	case l == LogNormal:
		return zerolog.InfoLevel
	case l == LogVerbose:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Logger writes levelled, human-readable messages through zerolog's
// console writer.  Child loggers created with With carry extra
// key/value fields (session id, remote address) on every line.
type Logger struct {
	level      LogLevel
	output     io.Writer
	timestamps bool // if true, prepend HH:MM:SS.mmm timestamps
	fields     []string
	zl         zerolog.Logger
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	l := &Logger{
		level:      LogLevel(verbosity),
		output:     os.Stderr,
		timestamps: verbosity >= 3, // auto-enable timestamps in debug mode
	}
	l.rebuild()
	return l
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.timestamps = on
	l.rebuild()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	l.rebuild()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// With returns a child logger that adds key=value to every message.
// The parent is left untouched.
func (l *Logger) With(key, value string) *Logger {
	child := &Logger{
		level:      l.level,
		output:     l.output,
		timestamps: l.timestamps,
		fields:     append(append([]string(nil), l.fields...), key, value),
	}
	child.rebuild()
	return child
}

// Info prints when verbosity ≥ 1.
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

// Warn prints when verbosity ≥ 1.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

// Verbose prints when verbosity ≥ 2.  Written at zerolog debug level.
func (l *Logger) Verbose(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

// Debug prints when verbosity ≥ 3.  Written at zerolog trace level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Trace().Msgf(format, args...)
}

// Error always prints regardless of verbosity.
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

func (l *Logger) rebuild() {
	cw := zerolog.ConsoleWriter{
		Out:        zerolog.SyncWriter(l.output),
		NoColor:    true,
		TimeFormat: "15:04:05.000",
	}
	if !l.timestamps {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	zc := zerolog.New(cw).Level(l.level.zerologLevel()).With()
	if l.timestamps {
		zc = zc.Timestamp()
	}
	for i := 0; i+1 < len(l.fields); i += 2 {
		zc = zc.Str(l.fields[i], l.fields[i+1])
	}
	l.zl = zc.Logger()
}

// ── goose adapter ────────────────────────────────────────────────────

// GooseLogger adapts Logger to goose's Logger interface so migration
// progress goes through the same output as everything else.
type GooseLogger struct {
	logger *Logger
}

// NewGooseLogger wraps l for goose.SetLogger.
func NewGooseLogger(l *Logger) *GooseLogger {
	return &GooseLogger{logger: l}
}

func (g *GooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.zl.Fatal().Msgf(format, v...)
}

func (g *GooseLogger) Printf(format string, v ...interface{}) {
	g.logger.Verbose(format, v...)
}
