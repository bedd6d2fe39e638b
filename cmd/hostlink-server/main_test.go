package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runAppStreams(t, args...)
	return out, err
}

// runAppStreams runs the app with separate stdout and stderr buffers.
func runAppStreams(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"hostlink-server"}, args...))
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func exitCode(err error) int {
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "hostlink-server ") {
		t.Errorf("output = %q", out)
	}
}

func TestLoadConfig_AddressFlagWins(t *testing.T) {
	path := writeConfig(t, "host:\n  address: \"http://127.0.0.1:9000/\"\n  dispatch_workers: 2\n")

	cfg, err := loadConfig(path, "http://127.0.0.1:9100/app/")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Host.Address != "http://127.0.0.1:9100/app/" {
		t.Errorf("address = %q, flag should win", cfg.Host.Address)
	}
	if cfg.Host.DispatchWorkers != 2 {
		t.Errorf("dispatch_workers = %d, want 2", cfg.Host.DispatchWorkers)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	if _, err := loadConfig("", "ftp://nowhere/"); err == nil {
		t.Error("loadConfig() with a bad address should fail")
	}
	path := writeConfig(t, "log:\n  level: loud\n")
	if _, err := loadConfig(path, ""); err == nil {
		t.Error("loadConfig() with a bad log level should fail")
	}
}

func TestReserveCommand(t *testing.T) {
	path := writeConfig(t, `
host:
  address: "http://127.0.0.1:5080/app/"
  reservation:
    reserve_command: 'echo "tok-$HOSTLINK_PORT"'
log:
  level: error
`)
	out, err := runApp(t, "reserve", "--config", path)
	if err != nil {
		t.Fatalf("reserve error = %v", err)
	}
	if strings.TrimSpace(out) != "tok-5080" {
		t.Errorf("output = %q, want tok-5080", out)
	}
}

func TestReserveCommand_LogsToErrWriter(t *testing.T) {
	path := writeConfig(t, `
host:
  address: "http://127.0.0.1:5081/"
  reservation:
    reserve_command: 'echo "tok-$HOSTLINK_PORT"'
    release_command: 'true'
log:
  level: info
`)
	out, errOut, err := runAppStreams(t, "reserve", "--config", path)
	if err != nil {
		t.Fatalf("reserve error = %v", err)
	}
	if strings.TrimSpace(out) != "tok-5081" {
		t.Errorf("stdout = %q, want only the token", out)
	}
	if !strings.Contains(errOut, "reservation token issued") || !strings.Contains(errOut, "http://127.0.0.1:5081/") {
		t.Errorf("stderr = %q, want the reservation logged", errOut)
	}

	_, errOut, err = runAppStreams(t, "release", "--config", path, "--token", "tok-5081")
	if err != nil {
		t.Fatalf("release error = %v", err)
	}
	if !strings.Contains(errOut, "address released") {
		t.Errorf("stderr = %q, want the release logged", errOut)
	}
}

func TestReserveCommand_NotSupported(t *testing.T) {
	path := writeConfig(t, "log:\n  level: error\n")
	_, err := runApp(t, "reserve", "--config", path)
	if exitCode(err) != exitNotSupported {
		t.Errorf("exit code = %d (%v), want %d", exitCode(err), err, exitNotSupported)
	}
}

func TestReserveCommand_Failed(t *testing.T) {
	path := writeConfig(t, "host:\n  reservation:\n    reserve_command: 'exit 3'\nlog:\n  level: error\n")
	_, err := runApp(t, "reserve", "--config", path)
	if exitCode(err) != exitFailed {
		t.Errorf("exit code = %d (%v), want %d", exitCode(err), err, exitFailed)
	}
}

func TestReleaseCommand(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "released")
	path := writeConfig(t, `
host:
  reservation:
    release_command: 'printf "%s" "$HOSTLINK_TOKEN" > `+marker+`'
log:
  level: error
`)
	if _, err := runApp(t, "release", "--config", path, "--token", "tok-1"); err != nil {
		t.Fatalf("release error = %v", err)
	}

	got, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("release command did not run: %v", err)
	}
	if string(got) != "tok-1" {
		t.Errorf("token = %q, want tok-1", got)
	}

	noRelease := writeConfig(t, "log:\n  level: error\n")
	_, err = runApp(t, "release", "--config", noRelease)
	if exitCode(err) != exitNotSupported {
		t.Errorf("exit code = %d, want %d", exitCode(err), exitNotSupported)
	}
}

func TestNewHost_Serves(t *testing.T) {
	cfg, err := loadConfig("", "http://127.0.0.1:0/")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	m, handler, err := initMetrics(cfg)
	if err != nil {
		t.Fatalf("initMetrics() error = %v", err)
	}
	if m == nil || handler == nil {
		t.Fatal("metrics enabled by default but nil")
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := newHost(cfg, log, m, handler)
	if err != nil {
		t.Fatalf("newHost() error = %v", err)
	}
	defer h.Close()

	if err := h.Start(context.Background(), cfg.Host.Address); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	base := "http://" + h.ListenAddr().String()
	client := &http.Client{Timeout: 5 * time.Second}

	get := func(path string) (*http.Response, string) {
		t.Helper()
		resp, err := client.Get(base + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp, string(body)
	}

	if resp, body := get("/ready"); resp.StatusCode != http.StatusOK {
		t.Errorf("/ready = %d %q", resp.StatusCode, body)
	}
	if resp, body := get("/metrics"); resp.StatusCode != http.StatusOK || !strings.Contains(body, "hostlink_requests_dispatched_total") {
		t.Errorf("/metrics = %d, missing host metrics", resp.StatusCode)
	}

	resp, body := get("/missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("/missing status = %d, want 404", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") || !strings.Contains(body, "HL-REQ-4040") {
		t.Errorf("/missing = %q %q, want a JSON error body", resp.Header.Get("Content-Type"), body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
