package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/hostlink-go/internal/infra/confloader"
	"github.com/yndnr/hostlink-go/internal/server/config"
	"github.com/yndnr/hostlink-go/internal/telemetry/logger"
)

// loadConfig loads defaults, the file, the environment and finally the
// flags, then validates the result.
func loadConfig(configFile, address string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if address != "" {
		if err := loader.LoadMap(map[string]any{"host.address": address}); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFromFlags(c *cli.Context) (*config.ServerConfig, error) {
	cfg, err := loadConfig(c.String("config"), c.String("address"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// initLogger installs the configured logger, writing to out, as the
// process default.
func initLogger(cfg *config.ServerConfig, out io.Writer) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  out,
		Service: "hostlink-server",
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}

// reloadFunc re-reads the configuration and applies what can change at
// runtime. Everything else needs a restart.
func reloadFunc(log *slog.Logger, configFile, address string) func(string) {
	return func(path string) {
		cfg, err := loadConfig(configFile, address)
		if err != nil {
			log.Warn("configuration reload rejected", "file", path, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	}
}
