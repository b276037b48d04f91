package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logger in production and a text logger otherwise.
func New(level string, production bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if production {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
		logger.WithField("level", level).Warn("unknown log level, using info")
	}
	logger.SetLevel(parsed)
	return logger
}

func Component(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}
