package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func newHCLog(level slog.Level) (hclog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	return HCLog(l), &buf
}

func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		out = append(out, e)
	}
	return out
}

func TestHCLog_Levels(t *testing.T) {
	l, buf := newHCLog(slog.LevelDebug)

	l.Trace("t")
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")
	l.Log(hclog.Off, "dropped")

	got := entries(t, buf)
	want := []string{"DEBUG", "DEBUG", "INFO", "WARN", "ERROR"}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, lvl := range want {
		if got[i]["level"] != lvl {
			t.Errorf("entry %d level = %v, want %s", i, got[i]["level"], lvl)
		}
	}
}

func TestHCLog_IsLevel(t *testing.T) {
	l, _ := newHCLog(slog.LevelWarn)

	if l.IsDebug() || l.IsInfo() {
		t.Error("debug/info reported enabled at warn level")
	}
	if !l.IsWarn() || !l.IsError() {
		t.Error("warn/error reported disabled at warn level")
	}
	if l.GetLevel() != hclog.Warn {
		t.Errorf("GetLevel() = %v, want warn", l.GetLevel())
	}
}

func TestHCLog_NamedAndWith(t *testing.T) {
	l, buf := newHCLog(slog.LevelInfo)

	named := l.Named("http").Named("server").With("address", "127.0.0.1:0")
	named.Info("ready")

	if named.Name() != "http.server" {
		t.Errorf("Name() = %q, want http.server", named.Name())
	}
	if args := named.ImpliedArgs(); len(args) != 2 {
		t.Errorf("ImpliedArgs() = %v, want 2 values", args)
	}

	e := entries(t, buf)[0]
	if e["address"] != "127.0.0.1:0" {
		t.Errorf("address = %v", e["address"])
	}
}

func TestHCLog_StandardLoggerInfersLevels(t *testing.T) {
	l, buf := newHCLog(slog.LevelDebug)

	std := l.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})
	std.Print("[ERR] bind failed")
	std.Print("[WARN] slow client")
	std.Print("[DEBUG] detail")
	std.Print("http: superfluous response.WriteHeader call")

	got := entries(t, buf)
	want := []struct{ level, msg string }{
		{"ERROR", "bind failed"},
		{"WARN", "slow client"},
		{"DEBUG", "detail"},
		{"INFO", "http: superfluous response.WriteHeader call"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i]["level"] != w.level || got[i]["msg"] != w.msg {
			t.Errorf("entry %d = %v %q, want %s %q", i, got[i]["level"], got[i]["msg"], w.level, w.msg)
		}
	}
}

func TestHCLog_StandardLoggerForceLevel(t *testing.T) {
	l, buf := newHCLog(slog.LevelDebug)

	std := l.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true, ForceLevel: hclog.Warn})
	std.Print("[DEBUG] http: TLS handshake error")

	e := entries(t, buf)[0]
	if e["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", e["level"])
	}
}
