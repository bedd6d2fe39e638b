// Package listener provides the Listener Handle used by the host.
//
// A Handle owns one bound socket and the net/http server that parses
// requests on it. Requests are not handed to application code directly:
// each parsed request waits in the handle until someone asks for it with
// BeginAccept, which completes asynchronously with exactly one Context or
// with an error when the handle is closed underneath it.
//
// Guarantees:
//
//   - At most one BeginAccept may be outstanding per handle (ErrAcceptPending).
//   - Close aborts an outstanding accept immediately and reports it with
//     ErrOperationAborted, the benign signal of a clean stop.
//   - A Context must be closed by whoever received it; the underlying
//     net/http handler goroutine does not return until it is.
//
// Bind failures caused by missing permission to reserve the address are
// reported as ErrAccessDenied on every platform.
package listener
