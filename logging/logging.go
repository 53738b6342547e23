package logging

import (
	"os"

	"github.com/fitlooks/tryon/config"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)
}

// GetLogger returns a log entry with the service name pre-bound.
func GetLogger() *logrus.Entry {
	return logger.WithFields(logrus.Fields{"service": config.ServiceName})
}

// SetupLogging sets the logging level. Unrecognized levels fall back to warn.
func SetupLogging(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.WarnLevel
	}
	logger.SetLevel(parsed)
}
