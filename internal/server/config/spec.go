package config

import "time"

// ServerConfig is the root configuration for hostlink-server.
type ServerConfig struct {
	Host      HostSection      `koanf:"host"`
	Errors    ErrorsSection    `koanf:"errors"`
	Processor ProcessorSection `koanf:"processor"`
	Metrics   MetricsSection   `koanf:"metrics"`
	Log       LogSection       `koanf:"log"`
}

// HostSection configures the listener host.
type HostSection struct {
	// Address is the bind address, e.g. "http://127.0.0.1:5080/".
	Address string `koanf:"address"`

	// AllowAutomaticURLReservation lets the host run the reserve command
	// once when binding is refused for lack of permission.
	AllowAutomaticURLReservation bool `koanf:"allow_automatic_url_reservation"`

	// DispatchWorkers bounds concurrent request processing.
	// 0 processes requests one at a time inside the accept callback.
	DispatchWorkers int `koanf:"dispatch_workers"`

	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`

	Reservation ReservationConfig `koanf:"reservation"`
}

// ReservationConfig configures the shell commands that grant and revoke
// the right to bind an address.
type ReservationConfig struct {
	ReserveCommand string        `koanf:"reserve_command"`
	ReleaseCommand string        `koanf:"release_command"`
	Timeout        time.Duration `koanf:"timeout"`
}

// ErrorsSection configures error responses.
type ErrorsSection struct {
	IncludeTrace       bool   `koanf:"include_trace"`
	DefaultContentType string `koanf:"default_content_type"`
}

// ProcessorSection configures the request pipeline.
type ProcessorSection struct {
	// RateLimit is requests per second per client IP. 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	// RateBurst is the limiter bucket size. 0 uses the rounded-up rate.
	RateBurst int `koanf:"rate_burst"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
