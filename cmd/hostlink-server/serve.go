package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/hostlink-go/internal/host"
	"github.com/yndnr/hostlink-go/internal/host/errresp"
	"github.com/yndnr/hostlink-go/internal/host/listener"
	"github.com/yndnr/hostlink-go/internal/host/reservation"
	"github.com/yndnr/hostlink-go/internal/infra/buildinfo"
	"github.com/yndnr/hostlink-go/internal/infra/confloader"
	"github.com/yndnr/hostlink-go/internal/infra/shutdown"
	"github.com/yndnr/hostlink-go/internal/processor"
	"github.com/yndnr/hostlink-go/internal/server/config"
	"github.com/yndnr/hostlink-go/internal/telemetry/logger"
	"github.com/yndnr/hostlink-go/internal/telemetry/metric"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the host and serve until interrupted",
		Flags:  globalFlags(),
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	cfg, err := loadFromFlags(c)
	if err != nil {
		return err
	}

	log, err := initLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}
	log.Info("starting hostlink-server",
		"version", buildinfo.Get().Version,
		"commit", buildinfo.Get().Commit,
		"config", config.Sanitize(cfg))

	metrics, metricsHandler, err := initMetrics(cfg)
	if err != nil {
		return err
	}

	h, err := newHost(cfg, log, metrics, metricsHandler)
	if err != nil {
		return err
	}

	if err := h.Start(c.Context, cfg.Host.Address); err != nil {
		_ = h.Close()
		return err
	}

	sd := shutdown.NewHandler(cfg.Host.ShutdownTimeout, log)

	// Hooks run in reverse order of registration.
	sd.OnShutdown("host", func(ctx context.Context) error {
		err := h.Stop(ctx)
		return errors.Join(err, h.Close())
	})

	if file := c.String("config"); file != "" {
		w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
		if err != nil {
			log.Warn("configuration watcher unavailable", "error", err)
		} else if err := w.Watch(file); err != nil {
			log.Warn("configuration file not watched", "file", file, "error", err)
			_ = w.Stop()
		} else {
			w.OnChange(reloadFunc(log, file, c.String("address")))
			w.StartAsync()
			sd.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
		}
	}

	go func() {
		<-h.Done()
		if err := h.LoopErr(); err != nil {
			log.Error("accept loop stopped", "error", err)
			sd.Trigger("accept loop failed")
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := sd.Wait(c.Context); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	if err := h.LoopErr(); err != nil {
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// initMetrics creates a registry with the runtime collectors. Disabled
// metrics yield a nil registry, which records nothing.
func initMetrics(cfg *config.ServerConfig) (*metric.Registry, http.Handler, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil, nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metric.New(reg)
	if err != nil {
		return nil, nil, err
	}
	return m, metric.Handler(reg), nil
}

// newHost wires the error responder, reserver and pipeline into a host.
func newHost(cfg *config.ServerConfig, log *slog.Logger, metrics *metric.Registry, metricsHandler http.Handler) (*host.Host, error) {
	addr, err := listener.ParseAddress(cfg.Host.Address)
	if err != nil {
		return nil, err
	}

	responder, err := errresp.New(errresp.Config{
		IncludeTrace:       cfg.Errors.IncludeTrace,
		DefaultContentType: cfg.Errors.DefaultContentType,
	}, errresp.WithLogger(logger.WithComponent(log, "errresp")), errresp.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}

	reserver := reservation.NewShell(reservation.ShellConfig{
		ReserveCommand: cfg.Host.Reservation.ReserveCommand,
		ReleaseCommand: cfg.Host.Reservation.ReleaseCommand,
		Timeout:        cfg.Host.Reservation.Timeout,
	}, logger.WithComponent(log, "reservation"))

	errorLog := logger.HCLog(log).Named("net/http").StandardLogger(&hclog.StandardLoggerOptions{
		InferLevels: true,
		ForceLevel:  hclog.Warn,
	})

	var h *host.Host
	pipeline := processor.New(processor.Config{
		Prefix:      addr.Path(),
		Ready:       func() bool { return h.IsListening() },
		Metrics:     metricsHandler,
		MetricsPath: cfg.Metrics.Path,
		RateLimit:   cfg.Processor.RateLimit,
		RateBurst:   cfg.Processor.RateBurst,
		Logger:      logger.WithComponent(log, "http"),
	})

	h = host.New(host.Config{
		AllowAutomaticURLReservation: cfg.Host.AllowAutomaticURLReservation,
		DispatchWorkers:              cfg.Host.DispatchWorkers,
		ShutdownTimeout:              cfg.Host.ShutdownTimeout,
		ReadHeaderTimeout:            cfg.Host.ReadHeaderTimeout,
	}, host.HandlerProcessor(pipeline), responder,
		host.WithReserver(reserver),
		host.WithLogger(logger.WithComponent(log, "host")),
		host.WithErrorLog(errorLog),
		host.WithMetrics(metrics),
	)
	return h, nil
}
