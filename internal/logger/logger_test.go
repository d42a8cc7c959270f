package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer: &buf,
		Format: "json",
		Level:  slog.LevelInfo,
	})

	log.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("expected JSON output with msg, got: %s", out)
	}
	if !strings.Contains(out, `"key":"value"`) {
		t.Errorf("expected JSON output with attr, got: %s", out)
	}
}

func TestNew_ProductionDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Environment: "production",
	})

	log.Info("prod message")

	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("production should default to JSON, got: %s", buf.String())
	}
}

func TestPrettyHandler_Output(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Format:      "pretty",
		Environment: "development",
	})

	log.Warn("watch out", "count", 3)

	out := buf.String()
	if !strings.Contains(out, "WRN") {
		t.Errorf("expected WRN level marker, got: %s", out)
	}
	if !strings.Contains(out, "watch out") {
		t.Errorf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("expected attr, got: %s", out)
	}
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer: &buf,
		Format: "pretty",
		Level:  slog.LevelWarn,
	})

	log.Debug("hidden")
	log.Info("also hidden")
	log.Error("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("below-level records should be dropped, got: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("error record should be written, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "json"})

	log.WithError(errTest{}).Error("operation failed")

	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected error attr, got: %s", buf.String())
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
