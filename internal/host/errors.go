package host

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/yndnr/hostlink-go/internal/core/domain"
)

// ErrDisposed is returned by Start after Close.
var ErrDisposed = errors.New("host: disposed")

// PanicError is a panic recovered from the processor.
type PanicError struct {
	Value any
	stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap classifies every recovered panic as domain.ErrPanic, followed by
// the panic value when it is an error.
func (e *PanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{domain.ErrPanic, err}
	}
	return []error{domain.ErrPanic}
}

// Stack returns the goroutine stack captured at recovery.
func (e *PanicError) Stack() []byte {
	return e.stack
}
