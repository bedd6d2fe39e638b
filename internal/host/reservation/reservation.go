package reservation

import (
	"context"
	"errors"

	"github.com/yndnr/hostlink-go/internal/host/listener"
)

// ErrNotConfigured is returned by Release when the reserver cannot undo a
// reservation.
var ErrNotConfigured = errors.New("reservation: not configured")

// Status is the outcome of a Reserve call.
type Status int

const (
	StatusReserved Status = iota
	StatusNotSupported
	StatusFailed
)

// String returns the metric label of the status.
func (s Status) String() string {
	switch s {
	case StatusReserved:
		return "reserved"
	case StatusNotSupported:
		return "not_supported"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Token identifies a granted reservation.
type Token struct {
	// Address is the canonical address that was reserved.
	Address string
	// Value is whatever the reserve command printed, trimmed. It may be empty.
	Value string
}

// Result is the tagged outcome of Reserve. Token is meaningful only for
// StatusReserved, Err only for StatusFailed.
type Result struct {
	Status Status
	Token  Token
	Err    error
}

// Reserved returns a successful result carrying tok.
func Reserved(tok Token) Result {
	return Result{Status: StatusReserved, Token: tok}
}

// NotSupported returns a result saying no reservation mechanism exists.
func NotSupported() Result {
	return Result{Status: StatusNotSupported}
}

// Failed returns a result carrying the reservation error.
func Failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

// OK reports whether the reservation was granted.
func (r Result) OK() bool {
	return r.Status == StatusReserved
}

// Reserver obtains and releases address reservations.
type Reserver interface {
	Reserve(ctx context.Context, addr *listener.Address) Result
	Release(ctx context.Context, tok Token) error
}

// None is a Reserver for platforms without a reservation mechanism.
type None struct{}

// Reserve always returns NotSupported.
func (None) Reserve(context.Context, *listener.Address) Result {
	return NotSupported()
}

// Release always returns ErrNotConfigured.
func (None) Release(context.Context, Token) error {
	return ErrNotConfigured
}
