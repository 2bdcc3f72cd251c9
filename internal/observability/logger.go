package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig contains logger configuration options.
type LoggingConfig struct {
	// Service is attached to every entry as "service" when set.
	Service string

	// Level is the minimum log level. Besides zerolog's names, "warning"
	// and "off" are accepted. Unknown levels fall back to info.
	Level string

	// Format is json, console or pretty.
	Format string

	// Output is stdout, stderr or discard.
	Output string

	// AddSource adds caller file and line.
	AddSource bool

	// TimeFormat defaults to RFC3339.
	TimeFormat string
}

// NewLogger creates a zerolog logger writing to cfg.Output.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	return newLogger(cfg, outputWriter(cfg.Output))
}

func outputWriter(name string) io.Writer {
	switch strings.ToLower(name) {
	case "stderr":
		return os.Stderr
	case "discard":
		return io.Discard
	default:
		return os.Stdout
	}
}

func newLogger(cfg LoggingConfig, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = cfg.TimeFormat
	if zerolog.TimeFieldFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: zerolog.TimeFieldFormat}
	}

	lc := zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		lc = lc.Str("service", cfg.Service)
	}
	if cfg.AddSource {
		lc = lc.Caller()
	}
	return lc.Logger()
}

func parseLevel(level string) zerolog.Level {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "warning":
		return zerolog.WarnLevel
	case "off":
		return zerolog.Disabled
	case "":
		return zerolog.InfoLevel
	default:
		parsed, err := zerolog.ParseLevel(l)
		if err != nil || parsed == zerolog.NoLevel {
			return zerolog.InfoLevel
		}
		return parsed
	}
}

// WithComponent tags a logger with the component that owns it.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithSearchContext adds the query and raw engine selector.
func WithSearchContext(logger zerolog.Logger, query, source string) zerolog.Logger {
	return logger.With().
		Str("query", query).
		Str("source", source).
		Logger()
}

// WithEngineContext adds the engine id to a logger.
func WithEngineContext(logger zerolog.Logger, engine string) zerolog.Logger {
	return logger.With().Str("engine", engine).Logger()
}

// WithRequestContext adds a request id field unless requestID is empty.
func WithRequestContext(logger zerolog.Logger, requestID string) zerolog.Logger {
	if requestID == "" {
		return logger
	}
	return logger.With().Str("request_id", requestID).Logger()
}
