package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Expected default pretty to be false")
	}
	if cfg.Output == nil {
		t.Error("Expected default output to be set")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name    string
		level   LogLevel
		pretty  bool
		emit    func(l zerolog.Logger)
		wantOut bool
	}{
		{
			name:    "debug message at debug level",
			level:   LevelDebug,
			emit:    func(l zerolog.Logger) { l.Debug().Msg("cache hit") },
			wantOut: true,
		},
		{
			name:    "debug message at info level",
			level:   LevelInfo,
			emit:    func(l zerolog.Logger) { l.Debug().Msg("cache hit") },
			wantOut: false,
		},
		{
			name:    "warn message at warn level",
			level:   LevelWarn,
			emit:    func(l zerolog.Logger) { l.Warn().Msg("cache hit") },
			wantOut: true,
		},
		{
			name:    "pretty output",
			level:   LevelInfo,
			pretty:  true,
			emit:    func(l zerolog.Logger) { l.Info().Msg("cache hit") },
			wantOut: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Pretty: tt.pretty, Output: buf})

			tt.emit(logger)

			if got := strings.Contains(buf.String(), "cache hit"); got != tt.wantOut {
				t.Errorf("output contains message = %v, want %v (output %q)", got, tt.wantOut, buf.String())
			}
		})
	}
}

func TestSetup_JSONFields(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelDebug, Output: buf})

	logger := NewLogger(ComponentClient)
	logger.Debug().
		Str("spec", "series/observations?series_id=GNPCA").
		Str("lookup", "cache_only").
		Msg("Cache miss")

	output := buf.String()
	for _, want := range []string{
		`"component":"fred-client"`,
		`"spec":"series/observations?series_id=GNPCA"`,
		`"lookup":"cache_only"`,
		`"time":`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %s, got %q", want, output)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"invalid", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if result := ParseLevel(tt.input); result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLogLevel_Valid(t *testing.T) {
	for _, level := range []LogLevel{"", LevelDebug, LevelInfo, LevelWarn, LevelError, "WARNING", "Info"} {
		if !level.Valid() {
			t.Errorf("LogLevel(%q).Valid() = false, want true", level)
		}
	}
	for _, level := range []LogLevel{"trace", "verbose", "fatal"} {
		if level.Valid() {
			t.Errorf("LogLevel(%q).Valid() = true, want false", level)
		}
	}
}
