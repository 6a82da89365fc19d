package observability

import (
	"io"
	"os"
	"strings"

	"membership-bot/internal/config"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger from the LOG_LEVEL and LOG_FORMAT settings.
func NewLogger(cfg config.Log, output io.Writer) *logrus.Logger {
	if output == nil {
		output = os.Stdout
	}

	log := logrus.New()
	log.SetOutput(output)

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log
}

// NewNopLogger discards everything. Used by tests.
func NewNopLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
