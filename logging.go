package taskgraph

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logging sink a Scheduler reports its lifecycle
// and diagnostic events to. The default, used when no [WithLogger] option is
// given, discards everything.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

// Field is a single structured logging key/value pair, built with one of
// Str, Int, ErrField, or Any.
type Field struct {
	key string
	val any
}

// Str builds a string-valued Field.
func Str(key, val string) Field { return Field{key: key, val: val} }

// Int builds an int-valued Field.
func Int(key string, val int) Field { return Field{key: key, val: val} }

// ErrField builds a Field carrying an error.
func ErrField(err error) Field { return Field{key: "err", val: err} }

// Any builds a Field carrying an arbitrary value.
func Any(key string, val any) Field { return Field{key: key, val: val} }

// noopLogger discards everything; it's the default when a Scheduler is
// created without WithLogger.
type noopLogger struct{}

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Warn(string, ...Field)  {}

// stumpyLogger adapts a [*logiface.Logger] using the stumpy JSON backend to
// the Logger interface.
type stumpyLogger struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewStumpyLogger builds a Logger that writes newline-delimited JSON via
// stumpy, the logiface reference backend. Without options it writes to
// os.Stderr.
func NewStumpyLogger(options ...stumpy.Option) Logger {
	return &stumpyLogger{
		l: stumpy.L.New(stumpy.L.WithStumpy(options...)),
	}
}

func (s *stumpyLogger) Debug(msg string, fields ...Field) { s.log(s.l.Debug(), msg, fields) }
func (s *stumpyLogger) Info(msg string, fields ...Field)  { s.log(s.l.Info(), msg, fields) }
func (s *stumpyLogger) Warn(msg string, fields ...Field)  { s.log(s.l.Warning(), msg, fields) }

func (s *stumpyLogger) log(b *logiface.Builder[*stumpy.Event], msg string, fields []Field) {
	for _, f := range fields {
		if err, ok := f.val.(error); ok && f.key == "err" {
			b = b.Err(err)
			continue
		}
		b = b.Any(f.key, f.val)
	}
	b.Log(msg)
}
