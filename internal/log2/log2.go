// Package log2 configures the process-wide zerolog logger.
package log2

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure sets the global level and output. An unknown level falls back to
// info; pretty switches to the human-readable console writer.
func Configure(level string, pretty bool) {
	Setup(os.Stderr, level, pretty)
}

func Setup(w io.Writer, level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

func Debugf(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}
