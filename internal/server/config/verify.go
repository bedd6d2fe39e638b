package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/hostlink-go/internal/host/errresp"
	"github.com/yndnr/hostlink-go/internal/host/listener"
	"github.com/yndnr/hostlink-go/internal/telemetry/logger"
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyHost(&cfg.Host),
		verifyErrors(&cfg.Errors),
		verifyProcessor(&cfg.Processor),
		verifyMetrics(&cfg.Metrics),
		verifyLog(&cfg.Log),
	)
}

func verifyHost(cfg *HostSection) error {
	var errs []error
	if _, err := listener.ParseAddress(cfg.Address); err != nil {
		errs = append(errs, fmt.Errorf("host.address: %w", err))
	}
	if cfg.DispatchWorkers < 0 {
		errs = append(errs, errors.New("host.dispatch_workers must not be negative"))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("host.shutdown_timeout must be positive"))
	}
	if cfg.ReadHeaderTimeout <= 0 {
		errs = append(errs, errors.New("host.read_header_timeout must be positive"))
	}
	if cfg.Reservation.Timeout <= 0 {
		errs = append(errs, errors.New("host.reservation.timeout must be positive"))
	}
	if cfg.AllowAutomaticURLReservation && strings.TrimSpace(cfg.Reservation.ReserveCommand) == "" {
		errs = append(errs, errors.New("host.reservation.reserve_command is required when automatic reservation is allowed"))
	}
	return errors.Join(errs...)
}

func verifyErrors(cfg *ErrorsSection) error {
	for _, s := range errresp.DefaultSerializers() {
		if s.ContentType() == cfg.DefaultContentType {
			return nil
		}
	}
	return fmt.Errorf("errors.default_content_type %q has no serializer", cfg.DefaultContentType)
}

func verifyProcessor(cfg *ProcessorSection) error {
	if cfg.RateLimit < 0 {
		return errors.New("processor.rate_limit must not be negative")
	}
	if cfg.RateBurst < 0 {
		return errors.New("processor.rate_burst must not be negative")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Enabled && !strings.HasPrefix(cfg.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with '/'", cfg.Path)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	if !logger.ValidLevel(cfg.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or text", cfg.Format))
	}
	return errors.Join(errs...)
}
