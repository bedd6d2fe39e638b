package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/hostlink-go/internal/host/listener"
	"github.com/yndnr/hostlink-go/internal/host/reservation"
	"github.com/yndnr/hostlink-go/internal/server/config"
	"github.com/yndnr/hostlink-go/internal/telemetry/logger"
)

// Exit codes of reserve and release.
const (
	exitFailed       = 1
	exitNotSupported = 2
)

func reserveCommand() *cli.Command {
	return &cli.Command{
		Name:   "reserve",
		Usage:  "Run the reserve command once and print the token",
		Flags:  globalFlags(),
		Action: reserve,
	}
}

func releaseCommand() *cli.Command {
	flags := append(globalFlags(), &cli.StringFlag{
		Name:  "token",
		Usage: "Token value printed by reserve",
	})
	return &cli.Command{
		Name:   "release",
		Usage:  "Run the release command once",
		Flags:  flags,
		Action: release,
	}
}

// shellFor builds the reservation shell for the configured address. Logs
// go to the error writer so that stdout carries only the token.
func shellFor(c *cli.Context) (*reservation.Shell, *listener.Address, *slog.Logger, error) {
	cfg, err := loadFromFlags(c)
	if err != nil {
		return nil, nil, nil, err
	}
	var out io.Writer = os.Stderr
	if c.App.ErrWriter != nil {
		out = c.App.ErrWriter
	}
	log, err := initLogger(cfg, out)
	if err != nil {
		return nil, nil, nil, err
	}

	addr, err := listener.ParseAddress(cfg.Host.Address)
	if err != nil {
		return nil, nil, nil, err
	}
	return reservation.NewShell(shellConfig(cfg), logger.WithComponent(log, "reservation")), addr, log, nil
}

func shellConfig(cfg *config.ServerConfig) reservation.ShellConfig {
	return reservation.ShellConfig{
		ReserveCommand: cfg.Host.Reservation.ReserveCommand,
		ReleaseCommand: cfg.Host.Reservation.ReleaseCommand,
		Timeout:        cfg.Host.Reservation.Timeout,
	}
}

func reserve(c *cli.Context) error {
	shell, addr, log, err := shellFor(c)
	if err != nil {
		return err
	}

	res := shell.Reserve(ctxOf(c), addr)
	switch res.Status {
	case reservation.StatusReserved:
		log.Info("reservation token issued", "address", addr.String())
		_, err := fmt.Fprintln(c.App.Writer, res.Token.Value)
		return err
	case reservation.StatusNotSupported:
		return cli.Exit("reservation not supported: no reserve command configured", exitNotSupported)
	default:
		return cli.Exit(fmt.Sprintf("reservation failed: %v", res.Err), exitFailed)
	}
}

func release(c *cli.Context) error {
	shell, addr, log, err := shellFor(c)
	if err != nil {
		return err
	}

	tok := reservation.Token{Address: addr.String(), Value: c.String("token")}
	if err := shell.Release(ctxOf(c), tok); err != nil {
		if errors.Is(err, reservation.ErrNotConfigured) {
			return cli.Exit("release not supported: no release command configured", exitNotSupported)
		}
		return cli.Exit(fmt.Sprintf("release failed: %v", err), exitFailed)
	}
	log.Info("address released", "address", addr.String())
	return nil
}

func ctxOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
