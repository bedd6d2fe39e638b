// Package metric provides Prometheus metrics for hostlink.
//
// Metrics include:
//
//   - Accepts issued and pending on the listener handle
//   - Requests dispatched, failed (by kind) and their duration
//   - Error responses that could not be written
//   - Listener state and reservation attempts
//   - Accept handshake counters
//
// A nil *Registry is valid and records nothing, so components can be
// built without metrics in tests.
package metric
