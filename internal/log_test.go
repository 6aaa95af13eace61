package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"ERROR":   LogLevelError,
		"warn":    LogLevelWarn,
		"WARNING": LogLevelWarn,
		" debug ": LogLevelDebug,
		"TRACE":   LogLevelTrace,
		"":        LogLevelInfo,
		"bogus":   LogLevelInfo,
	}
	for input, want := range tests {
		if got := ParseLogLevel(input); got != want {
			t.Errorf("ParseLogLevel(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LogLevelWarn, &buf)

	logger.Debug("hidden %d", 1)
	logger.Info("hidden %d", 2)
	logger.Warn("shown %d", 3)
	logger.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 3") || !strings.Contains(out, "[ERROR] shown 4") {
		t.Errorf("expected warn and error lines, got %q", out)
	}
}
