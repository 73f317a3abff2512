package log

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/pretty"

	"github.com/xeptore/djmix/constant"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

func newBaseLogger() zerolog.Logger {
	return zerolog.
		New(io.Discard).
		With().
		Dict(
			"app",
			zerolog.
				Dict().
				Str("version", constant.Version).
				Str("compilation_time", constant.CompileTime.Format(time.RFC3339)),
		).
		Timestamp().
		Logger().
		Level(zerolog.TraceLevel)
}

func NewPretty(w io.Writer) zerolog.Logger {
	return newBaseLogger().Output(newPrettyWriter(w))
}

func NewPacked(w io.Writer) zerolog.Logger {
	return newBaseLogger().Output(w)
}

// ParseLevel falls back to info on unknown level names.
func ParseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if nil != err {
		return zerolog.InfoLevel
	}
	return lvl
}

// Module derives a component logger tagged with its module name.
func Module(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("module", name).Logger()
}

func newPrettyWriter(out io.Writer) prettyWriter {
	return prettyWriter{out}
}

type prettyWriter struct {
	out io.Writer
}

func (p prettyWriter) Write(line []byte) (int, error) {
	if n, err := p.out.Write(pretty.Color(pretty.Pretty(line), nil)); nil != err {
		return n, err
	}
	return len(line), nil
}
