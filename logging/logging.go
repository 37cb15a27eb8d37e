package logging

import (
	"os"

	"github.com/phuslu/log"

	"github.com/itish2003/assistant/config"
)

// Setup configures the process-wide logger from the log section of the config.
func Setup(cfg config.LogConfig) {
	logger := log.Logger{
		Level:      log.ParseLevel(cfg.Level),
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}

	switch cfg.Format {
	case "json":
		logger.Writer = &log.IOWriter{Writer: os.Stderr}
	default:
		logger.Writer = &log.ConsoleWriter{
			ColorOutput:    log.IsTerminal(os.Stderr.Fd()),
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		}
	}

	log.DefaultLogger = logger
}
