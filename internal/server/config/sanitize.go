package config

import (
	"regexp"

	"github.com/yndnr/hostlink-go/internal/telemetry/logger"
)

// userinfoPattern matches "scheme://user:password@" inside free text.
var userinfoPattern = regexp.MustCompile(`([A-Za-z][A-Za-z0-9+.-]*://[^\s:/@]+:)[^\s@]+@`)

// Sanitize returns a copy of the config with credentials masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	sanitized.Host.Address = logger.RedactString(sanitized.Host.Address)
	sanitized.Host.Reservation.ReserveCommand = maskCommand(sanitized.Host.Reservation.ReserveCommand)
	sanitized.Host.Reservation.ReleaseCommand = maskCommand(sanitized.Host.Reservation.ReleaseCommand)

	return &sanitized
}

// maskCommand hides passwords of URLs embedded in a shell command.
func maskCommand(s string) string {
	return userinfoPattern.ReplaceAllString(s, "${1}xxxxx@")
}
