// Package logger builds the *slog.Logger used across hostlink.
//
//   - logger.go: handler construction, the shared level, component tags
//   - context.go: request id propagation through context.Context
//   - redact.go: masking of credentials and secrets in attributes
//   - hclog.go: go-hclog adapter, used to route *log.Logger output
//     (the net/http server error log) into the structured log
//
// Loggers from New share one slog.LevelVar, so SetLevel changes all of
// them at runtime. Records logged through the *Context methods pick up
// the request id stored with WithRequestID.
package logger
