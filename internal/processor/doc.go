// Package processor builds the HTTP pipeline the server hands to the host.
//
// Routes return errors instead of writing error responses. Inside a host
// the error travels back through host.Fail and is rendered by the host's
// error responder; outside one a minimal plain-text response is written.
//
// Middleware order: RequestID -> Audit -> RateLimit -> routes.
package processor
