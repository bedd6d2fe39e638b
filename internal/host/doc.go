// Package host binds a request processor to a listener handle and manages
// its lifecycle.
//
// A Host owns at most one listener.Handle at a time. Start binds it,
// retrying once through a reservation.Reserver when the bind is refused
// for lack of permission, and starts the accept loop. The loop keeps
// exactly one accept outstanding: it arms a handshake.Signal, issues the
// accept and waits; the accept callback dispatches the request and sets
// the signal on every exit path.
//
// Failures escaping the processor, panics included, are handed to the
// ErrorResponder of that request and never stop the loop. Stop closes the
// handle, which aborts the outstanding accept, and waits for the loop to
// exit. Stop and Close are idempotent and safe to call concurrently.
package host
