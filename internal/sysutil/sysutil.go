// Package sysutil configures the process-wide zerolog logger.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel sets the global zerolog level from LOG_LEVEL. Names are
// zerolog's (trace, debug, info, warn, error, fatal, panic, disabled), case
// and surrounding blanks ignored; "warning" is accepted for warn. Empty or
// unknown values mean info.
func SetLogLevel(lvl string) {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	if lvl == "warning" {
		lvl = "warn"
	}
	level, err := zerolog.ParseLevel(lvl)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// SetupLogger points the global logger at w (stderr when nil). Pretty output
// is meant for running the add-on locally; the Supervisor log viewer gets
// JSON lines.
func SetupLogger(w io.Writer, pretty bool) {
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", "pill-mate").Logger()
}
