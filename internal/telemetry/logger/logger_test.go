package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newBuffered(t *testing.T, level, format string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: format, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { SetLevel("info") })
	return l, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", `"msg":"hello"`},
		{"", `"msg":"hello"`},
		{"text", "msg=hello"},
		{"Console", "msg=hello"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			l, buf := newBuffered(t, "info", tt.format)
			l.Info("hello")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("New(format xml) error = nil")
	}
	if _, err := New(Config{Level: "trace"}); err == nil {
		t.Error("New(level trace) error = nil")
	}
}

func TestNew_Service(t *testing.T) {
	l, buf := newBuffered(t, "info", "json")
	l.Info("up")
	if got := decodeLine(t, buf)["service"]; got != DefaultService {
		t.Errorf("service = %v, want %s", got, DefaultService)
	}

	buf.Reset()
	named, err := New(Config{Output: buf, Service: "edge"})
	if err != nil {
		t.Fatal(err)
	}
	named.Info("up")
	if got := decodeLine(t, buf)["service"]; got != "edge" {
		t.Errorf("service = %v, want edge", got)
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBuffered(t, "warn", "json")

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug/info logged at warn level: %s", buf.String())
	}

	l.Warn("shown")
	if entry := decodeLine(t, buf); entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	tests := []struct {
		input string
		want  string
	}{
		{"debug", "debug"},
		{"INFO", "info"},
		{"warning", "warn"},
		{"error", "error"},
		{"bogus", "info"},
	}
	for _, tt := range tests {
		SetLevel(tt.input)
		if got := GetLevel(); got != tt.want {
			t.Errorf("SetLevel(%q); GetLevel() = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSetLevel_ReachesExistingLoggers(t *testing.T) {
	l, buf := newBuffered(t, "info", "json")

	l.Debug("before")
	if buf.Len() != 0 {
		t.Fatal("debug logged at info level")
	}

	SetLevel("debug")
	l.Debug("after")
	if !strings.Contains(buf.String(), "after") {
		t.Error("SetLevel did not reach an existing logger")
	}
}

func TestValidLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "warning", "ERROR"} {
		if !ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = false", lvl)
		}
	}
	for _, lvl := range []string{"", "trace", "verbose"} {
		if ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = true", lvl)
		}
	}
}

func TestWithComponent(t *testing.T) {
	l, buf := newBuffered(t, "info", "json")

	WithComponent(l, "accept-loop").Info("started", "password", "hunter2")

	entry := decodeLine(t, buf)
	if entry["component"] != "accept-loop" {
		t.Errorf("component = %v, want accept-loop", entry["component"])
	}
	if entry["password"] != redactedValue {
		t.Errorf("password = %v, want redacted", entry["password"])
	}
}
