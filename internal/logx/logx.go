package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
)

// New builds the process logger. Output always goes to stderr because stdout
// carries protocol frames.
func New(level, format string) (zerolog.Logger, error) {
	return NewWithWriter(os.Stderr, level, format)
}

func NewWithWriter(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), clierr.Wrap(clierr.CodeInvalidArguments, "parse log level", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = w
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	case "json":
	default:
		return zerolog.Nop(), clierr.New(clierr.CodeInvalidArguments, "log format must be console or json")
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// Component tags a child logger with the subsystem name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
