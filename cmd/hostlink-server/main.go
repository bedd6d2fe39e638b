package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/hostlink-go/internal/infra/buildinfo"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "hostlink-server",
		Usage:   "Host an HTTP request pipeline behind a managed listener",
		Version: buildinfo.String(),
		Commands: []*cli.Command{
			serveCommand(),
			reserveCommand(),
			releaseCommand(),
			versionCommand(),
		},
	}
}

// globalFlags returns the flags shared by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			EnvVars: []string{"HOSTLINK_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "address",
			Aliases: []string{"a"},
			Usage:   "Bind address, e.g. http://127.0.0.1:5080/",
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			_, err := fmt.Fprintf(c.App.Writer, "hostlink-server %s\n", buildinfo.String())
			return err
		},
	}
}
