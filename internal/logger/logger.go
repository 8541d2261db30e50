package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds the process logger and installs it as the zerolog global, which is
// what the library packages log through.
func Setup(debug bool) zerolog.Logger {
	return setup(os.Stderr, debug)
}

func setup(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	out := w
	if debug {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: w, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if debug {
		logger = logger.With().Caller().Stack().Logger()
	}

	log.Logger = logger
	return logger
}
