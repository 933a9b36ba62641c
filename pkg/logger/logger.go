package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Init configures the global zerolog logger. In console mode output is
// colorized and human readable; otherwise plain JSON goes to stdout.
func Init(levelStr string, console bool) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		level = zerolog.InfoLevel
	}

	var l zerolog.Logger
	if console {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04:05",
		})
	} else {
		l = zerolog.New(os.Stdout)
	}

	log.Logger = l.Level(level).With().Timestamp().Caller().Logger()
	zerolog.SetGlobalLevel(level)
}
