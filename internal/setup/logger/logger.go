package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a JSON logger. Pass os.Stderr for binaries whose stdout
// carries protocol traffic.
func New(level string, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if out == nil {
		out = os.Stdout
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Logger()
}
