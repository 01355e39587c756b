// Package logging configures zerolog for fred-client and its callers.
//
// Libraries in this module never call Setup; they log through component
// loggers derived from the global zerolog logger, so an application's own
// Setup call controls level, format and destination for everything.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component names attached as the "component" field.
const (
	ComponentClient = "fred-client"
	ComponentBatch  = "fred-batch"
)

// LogLevel is a level name as written in config files and FRED_LOG_LEVEL.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Valid reports whether l names a supported level. The empty level is valid
// and means info.
func (l LogLevel) Valid() bool {
	switch LogLevel(strings.ToLower(string(l))) {
	case "", LevelDebug, LevelInfo, LevelWarn, "warning", LevelError:
		return true
	}
	return false
}

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Setup installs the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// ParseLevel maps a level name to zerolog. Unknown or empty names map to
// info; "warning" is accepted for warn.
func ParseLevel(level LogLevel) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	if name == "warning" {
		name = string(LevelWarn)
	}
	if !LogLevel(name).Valid() || name == "" {
		return zerolog.InfoLevel
	}
	parsed, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return parsed
}

// NewLogger returns a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Level guidelines for this module:
//
// Debug: per-request detail. Cache hit or miss per spec, outbound FRED
// requests (credential redacted), non-200 responses and transport failures
// that are also returned to the caller.
//
// Info: paged observation fetch start and completion.
//
// Warn: failures that leave the result intact. Cache write failed after a
// successful fetch, debug artifact not written, failed batch items.
//
// Error is not used for per-call failures; those are returned.
//
// Fields: component, spec (e.g. series/observations?series_id=GNPCA),
// lookup (fred_on_cache_miss, fred_only, cache_only), source (cache or fred),
// status, bytes.
