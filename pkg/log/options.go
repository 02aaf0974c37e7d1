package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Option configures a Logger at construction time.
type Option func(*logger)

// WithLevel sets the logging level.
func WithLevel(level Level) Option {
	return func(l *logger) {
		l.level = level
		l.entry.Logger.SetLevel(level.ToLogrusLevel())
	}
}

// WithOutput sets the destination the logger writes to.
func WithOutput(out io.Writer) Option {
	return func(l *logger) {
		l.entry.Logger.SetOutput(out)
	}
}

// WithDisabledColors disables colored output, e.g. when writing to a file rather than a terminal.
func WithDisabledColors() Option {
	return func(l *logger) {
		l.entry.Logger.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
			DisableColors:    true,
		})
	}
}
