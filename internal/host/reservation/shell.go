package reservation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/yndnr/hostlink-go/internal/host/listener"
)

// DefaultTimeout bounds a single reservation command.
const DefaultTimeout = 30 * time.Second

// Environment variables exported to reservation commands.
const (
	EnvURL   = "HOSTLINK_URL"
	EnvHost  = "HOSTLINK_HOST"
	EnvPort  = "HOSTLINK_PORT"
	EnvPath  = "HOSTLINK_PATH"
	EnvToken = "HOSTLINK_TOKEN"
)

// ShellConfig configures a Shell reserver.
type ShellConfig struct {
	// ReserveCommand is a POSIX shell script run to grant the reservation.
	// Whatever it prints on stdout becomes the token value.
	ReserveCommand string
	// ReleaseCommand undoes a reservation. The token value is exported as
	// $HOSTLINK_TOKEN.
	ReleaseCommand string
	// Timeout bounds each command. Zero means DefaultTimeout.
	Timeout time.Duration
	// Dir is the working directory of the commands. Empty means the
	// process working directory.
	Dir string
	// Env is appended to the process environment.
	Env []string
}

// Shell runs reservation commands with an embedded POSIX shell interpreter,
// so no system shell is required.
type Shell struct {
	cfg    ShellConfig
	logger *slog.Logger
}

// NewShell creates a Shell reserver. A nil logger uses slog.Default.
func NewShell(cfg ShellConfig, logger *slog.Logger) *Shell {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{cfg: cfg, logger: logger}
}

// Reserve runs the reserve command for addr. Without a reserve command it
// returns NotSupported.
func (s *Shell) Reserve(ctx context.Context, addr *listener.Address) Result {
	if strings.TrimSpace(s.cfg.ReserveCommand) == "" {
		return NotSupported()
	}

	stdout, err := s.run(ctx, "reserve", s.cfg.ReserveCommand, addrEnv(addr))
	if err != nil {
		s.logger.Warn("reservation failed", "address", addr.String(), "error", err)
		return Failed(fmt.Errorf("reserve %s: %w", addr, err))
	}

	tok := Token{Address: addr.String(), Value: strings.TrimSpace(stdout)}
	s.logger.Info("address reserved", "address", tok.Address)
	return Reserved(tok)
}

// Release runs the release command for tok.
func (s *Shell) Release(ctx context.Context, tok Token) error {
	if strings.TrimSpace(s.cfg.ReleaseCommand) == "" {
		return ErrNotConfigured
	}

	env := []string{EnvToken + "=" + tok.Value}
	if addr, err := listener.ParseAddress(tok.Address); err == nil {
		env = append(env, addrEnv(addr)...)
	} else {
		env = append(env, EnvURL+"="+tok.Address)
	}

	if _, err := s.run(ctx, "release", s.cfg.ReleaseCommand, env); err != nil {
		return fmt.Errorf("release %s: %w", tok.Address, err)
	}
	s.logger.Info("address reservation released", "address", tok.Address)
	return nil
}

func (s *Shell) run(ctx context.Context, name, script string, env []string) (string, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), name)
	if err != nil {
		return "", fmt.Errorf("parse %s command: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	environ := append(os.Environ(), s.cfg.Env...)
	environ = append(environ, env...)

	var stdout, stderr bytes.Buffer
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(environ...)),
		interp.StdIO(nil, &stdout, &stderr),
	}
	if s.cfg.Dir != "" {
		opts = append(opts, interp.Dir(s.cfg.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return "", fmt.Errorf("create %s runner: %w", name, err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return stdout.String(), fmt.Errorf("%s command exited with status %d: %s",
				name, uint8(exitStatus), strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), fmt.Errorf("%s command: %w", name, err)
	}
	return stdout.String(), nil
}

func addrEnv(addr *listener.Address) []string {
	return []string{
		EnvURL + "=" + addr.String(),
		EnvHost + "=" + addr.Host(),
		EnvPort + "=" + addr.Port(),
		EnvPath + "=" + addr.Path(),
	}
}
