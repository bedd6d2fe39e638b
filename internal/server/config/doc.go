// Package config provides server configuration for hostlink.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (address syntax, timeouts, known formats)
//   - sanitize.go: Log sanitization (hide credentials)
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and HOSTLINK_ prefixed environment variables.
package config
