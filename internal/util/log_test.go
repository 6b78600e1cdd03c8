package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger("debug")
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	logger = NewLogger("invalid")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", logger.GetLevel())
	}
}

func TestNewLoggerToConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "info", "console")
	logger.Info().Str("pair", "XLK/QQQ").Msg("screened")
	out := buf.String()
	if !strings.Contains(out, "screened") || !strings.Contains(out, "pair=XLK/QQQ") {
		t.Fatalf("unexpected console output: %s", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected non-JSON console output, got %s", out)
	}
}

func TestNewLoggerToJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn", "json")
	logger.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info suppressed at warn level, got %s", buf.String())
	}
	logger.Warn().Msg("kept")
	if !strings.Contains(buf.String(), `"message":"kept"`) {
		t.Fatalf("expected JSON line, got %s", buf.String())
	}
}
