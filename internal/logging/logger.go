// Package logging is the structured logging facade shared by the CLI, the
// HTTP server and the digit scanner. Components depend on the Logger
// interface; the application picks the backend once at startup.
package logging

import (
	"io"
	stdlog "log"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging interface used across picalc.
type Logger interface {
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Debug(msg string, fields ...Field)

	// Printf keeps call sites written against *log.Logger working.
	Printf(format string, args ...any)
}

// Field is a key/value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Err attaches err under the "error" key.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Options selects the backend configuration.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// Console switches from JSON lines to zerolog's human-readable writer.
	Console bool
	// Component, when set, is added to every line.
	Component string
}

// ZerologAdapter is the default Logger, backed by zerolog.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps an existing zerolog.Logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// New builds a zerolog-backed Logger writing to w.
func New(w io.Writer, opts Options) *ZerologAdapter {
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}
	}
	ctx := zerolog.New(w).With().Timestamp()
	if opts.Component != "" {
		ctx = ctx.Str("component", opts.Component)
	}
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	return NewZerologAdapter(ctx.Logger().Level(level))
}

// Zerolog exposes the underlying logger for packages that log through
// zerolog directly.
func (z *ZerologAdapter) Zerolog() zerolog.Logger {
	return z.logger
}

func applyFields(event *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			event = event.Str(f.Key, v)
		case int:
			event = event.Int(f.Key, v)
		case int64:
			event = event.Int64(f.Key, v)
		case float64:
			event = event.Float64(f.Key, v)
		case time.Duration:
			event = event.Dur(f.Key, v)
		case error:
			event = event.AnErr(f.Key, v)
		default:
			event = event.Interface(f.Key, v)
		}
	}
	return event
}

func (z *ZerologAdapter) Info(msg string, fields ...Field) {
	applyFields(z.logger.Info(), fields).Msg(msg)
}

func (z *ZerologAdapter) Warn(msg string, fields ...Field) {
	applyFields(z.logger.Warn(), fields).Msg(msg)
}

func (z *ZerologAdapter) Error(msg string, err error, fields ...Field) {
	applyFields(z.logger.Error().Err(err), fields).Msg(msg)
}

func (z *ZerologAdapter) Debug(msg string, fields ...Field) {
	applyFields(z.logger.Debug(), fields).Msg(msg)
}

func (z *ZerologAdapter) Printf(format string, args ...any) {
	z.logger.Info().Msgf(format, args...)
}

// StdLoggerAdapter routes Logger calls to a *log.Logger, for embedding in
// programs that already own one.
type StdLoggerAdapter struct {
	logger *stdlog.Logger
}

func NewStdLoggerAdapter(logger *stdlog.Logger) *StdLoggerAdapter {
	return &StdLoggerAdapter{logger: logger}
}

func (s *StdLoggerAdapter) line(level, msg string, err error, fields []Field) {
	switch {
	case err != nil && len(fields) > 0:
		s.logger.Printf("[%s] %s: %v %v", level, msg, err, fields)
	case err != nil:
		s.logger.Printf("[%s] %s: %v", level, msg, err)
	case len(fields) > 0:
		s.logger.Printf("[%s] %s %v", level, msg, fields)
	default:
		s.logger.Printf("[%s] %s", level, msg)
	}
}

func (s *StdLoggerAdapter) Info(msg string, fields ...Field)  { s.line("INFO", msg, nil, fields) }
func (s *StdLoggerAdapter) Warn(msg string, fields ...Field)  { s.line("WARN", msg, nil, fields) }
func (s *StdLoggerAdapter) Debug(msg string, fields ...Field) { s.line("DEBUG", msg, nil, fields) }

func (s *StdLoggerAdapter) Error(msg string, err error, fields ...Field) {
	s.line("ERROR", msg, err, fields)
}

func (s *StdLoggerAdapter) Printf(format string, args ...any) {
	s.logger.Printf(format, args...)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Info(string, ...Field)         {}
func (Nop) Warn(string, ...Field)         {}
func (Nop) Error(string, error, ...Field) {}
func (Nop) Debug(string, ...Field)        {}
func (Nop) Printf(string, ...any)         {}
