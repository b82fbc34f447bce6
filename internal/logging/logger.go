package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger shared by every package.
type Logger = logrus.FieldLogger

// Fields represents structured logging fields
type Fields = logrus.Fields

// ParseLevel maps LOG_LEVEL values to logrus levels, defaulting to info.
func ParseLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// NewLogger creates a JSON logger at the LOG_LEVEL from the environment.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(ParseLevel(os.Getenv("LOG_LEVEL")))
	return logger
}

// NewLoggerWithService returns an entry tagging every line with the service name.
func NewLoggerWithService(serviceName string) *logrus.Entry {
	return NewLogger().WithField("service", serviceName)
}

// NewNopLogger discards everything. Used when no logger is injected.
func NewNopLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
