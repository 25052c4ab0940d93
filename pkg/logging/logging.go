package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used throughout the runner. It is satisfied
// by *logrus.Logger and *logrus.Entry, allowing components to be handed a
// pre-scoped logger.
type Logger interface {
	logrus.FieldLogger
	Writer() *io.PipeWriter
}

// NewComponent returns a logger scoped to the named component.
func NewComponent(log *logrus.Logger, component string) Logger {
	return log.WithField("component", component)
}

// Discard returns a logger that drops all output. It is primarily intended
// for tests.
func Discard() Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
