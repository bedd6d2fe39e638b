package listener

import (
	"errors"
	"net"
	"net/http"
)

var (
	// ErrAccessDenied indicates the process lacks permission to bind the address.
	ErrAccessDenied = errors.New("listener: access denied")

	// ErrOperationAborted indicates an outstanding accept was aborted because
	// the handle was closed.
	ErrOperationAborted = errors.New("listener: operation aborted")

	// ErrNotListening is returned by BeginAccept when the handle is not listening.
	ErrNotListening = errors.New("listener: not listening")

	// ErrAlreadyListening is returned by Start on a handle that was already started.
	ErrAlreadyListening = errors.New("listener: already started")

	// ErrClosed is returned by Start on a closed handle.
	ErrClosed = errors.New("listener: closed")

	// ErrAcceptPending is returned by BeginAccept while another accept is outstanding.
	ErrAcceptPending = errors.New("listener: accept already pending")

	// ErrContextClosed is returned when writing to a context that was already released.
	ErrContextClosed = errors.New("listener: context closed")
)

// Address errors.
var (
	ErrInvalidAddress       = errors.New("listener: invalid address")
	ErrUnsupportedScheme    = errors.New("listener: unsupported scheme")
	ErrMissingTrailingSlash = errors.New("listener: address must end with '/'")
)

// IsExpectedCloseError reports whether err is one of the results closing a
// handle produces during a normal stop.
func IsExpectedCloseError(err error) bool {
	return errors.Is(err, ErrOperationAborted) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, http.ErrServerClosed)
}
