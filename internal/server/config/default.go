package config

import "time"

// Default configuration values.
const (
	DefaultAddress           = "http://127.0.0.1:5080/"
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultReserveTimeout    = 30 * time.Second

	DefaultErrorContentType = "application/json"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Host: HostSection{
			Address:           DefaultAddress,
			ShutdownTimeout:   DefaultShutdownTimeout,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			Reservation: ReservationConfig{
				Timeout: DefaultReserveTimeout,
			},
		},
		Errors: ErrorsSection{
			DefaultContentType: DefaultErrorContentType,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
