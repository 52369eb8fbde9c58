package setup

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/staprolab/interpret-server/internal/domain"
)

// NewLogger builds the process logger from configuration. Unknown levels
// fall back to info rather than failing startup.
func NewLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(cfg.Format) == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if strings.ToLower(cfg.Output) == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return logger
}
