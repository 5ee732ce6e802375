package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger: human-readable output in dev and
// JSON elsewhere. An empty or unknown level means debug in dev and info otherwise.
func Init(env, level string) {
	initTo(os.Stdout, env, level)
}

func initTo(out io.Writer, env, level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
		if env == "dev" {
			lvl = zerolog.DebugLevel
		}
	}
	zerolog.SetGlobalLevel(lvl)
	if env == "dev" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("env", env).Logger()
}
