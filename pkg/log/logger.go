// Package log provides a leveled logger with structured logging support.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured fields attached to a log entry.
type Fields map[string]any

// Logger wraps the logrus package to have full control over the exposed functionality and to make it easy to pass
// a pre-configured logger through the codebase.
type Logger interface {
	// Level returns the current log level.
	Level() Level

	// SetLevel parses and sets the log level.
	SetLevel(str string) error

	// SetOutput sets the destination the logger writes to.
	SetOutput(out io.Writer)

	// WithField adds a single field to the Logger and returns a new instance; the field is added to the returned
	// instance only.
	WithField(key string, value any) Logger

	// WithFields adds a set of fields to the Logger. All it does is call WithField for each field.
	WithFields(fields Fields) Logger

	// WithError adds an error as a single field to the Logger.
	WithError(err error) Logger

	// WriterLevel returns an io.Writer that writes to the Logger at the given log level.
	WriterLevel(level Level) *io.PipeWriter

	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

type logger struct {
	entry *logrus.Entry
	level Level
}

// New returns a new Logger instance with the given options applied.
func New(opts ...Option) Logger {
	parent := logrus.New()
	parent.SetLevel(logrus.InfoLevel)
	parent.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	l := &logger{
		entry: logrus.NewEntry(parent),
		level: InfoLevel,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *logger) Level() Level {
	return l.level
}

func (l *logger) SetLevel(str string) error {
	level, err := ParseLevel(str)
	if err != nil {
		return err
	}

	l.level = level
	l.entry.Logger.SetLevel(level.ToLogrusLevel())

	return nil
}

func (l *logger) SetOutput(out io.Writer) {
	l.entry.Logger.SetOutput(out)
}

func (l *logger) WithField(key string, value any) Logger {
	return &logger{entry: l.entry.WithField(key, value), level: l.level}
}

func (l *logger) WithFields(fields Fields) Logger {
	return &logger{entry: l.entry.WithFields(logrus.Fields(fields)), level: l.level}
}

func (l *logger) WithError(err error) Logger {
	return &logger{entry: l.entry.WithError(err), level: l.level}
}

func (l *logger) WriterLevel(level Level) *io.PipeWriter {
	return l.entry.WriterLevel(level.ToLogrusLevel())
}

func (l *logger) Tracef(format string, args ...any) { l.entry.Tracef(format, args...) }
func (l *logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

func (l *logger) Trace(args ...any) { l.entry.Trace(args...) }
func (l *logger) Debug(args ...any) { l.entry.Debug(args...) }
func (l *logger) Info(args ...any)  { l.entry.Info(args...) }
func (l *logger) Warn(args ...any)  { l.entry.Warn(args...) }
func (l *logger) Error(args ...any) { l.entry.Error(args...) }
