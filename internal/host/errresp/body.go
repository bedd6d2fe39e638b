package errresp

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yndnr/hostlink-go/internal/core/domain"
)

// Body is the serialized form of an error response.
type Body struct {
	XMLName   xml.Name `json:"-" yaml:"-" xml:"error"`
	Kind      string   `json:"kind" yaml:"kind" xml:"kind"`
	Message   string   `json:"message" yaml:"message" xml:"message"`
	RequestID string   `json:"request_id" yaml:"request_id" xml:"request_id"`
	Timestamp int64    `json:"timestamp" yaml:"timestamp" xml:"timestamp"`
	Trace     []string `json:"trace,omitempty" yaml:"trace,omitempty" xml:"trace>frame,omitempty"`
}

// StackTracer is implemented by errors that carry a goroutine stack, such
// as recovered panics.
type StackTracer interface {
	Stack() []byte
}

// NewBody builds the body for err. When trace is set the error chain and
// any carried stack are included.
func NewBody(err error, requestID string, now time.Time, trace bool) Body {
	b := Body{
		Kind:      Kind(err),
		Message:   message(err),
		RequestID: requestID,
		Timestamp: now.UnixMilli(),
	}
	if trace {
		b.Trace = Trace(err)
	}
	return b
}

// Kind classifies err: the domain error code when there is one, otherwise
// the type name of the innermost error.
func Kind(err error) string {
	if code := domain.GetErrorCode(err); code != "" {
		return code
	}
	if err == nil {
		return "unknown"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", innermost(err)), "*")
}

func message(err error) string {
	if err == nil {
		return "unknown error"
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		if de.Details != "" {
			return de.Message + ": " + de.Details
		}
		return de.Message
	}
	return err.Error()
}

// Trace lists the error chain from the outermost error inward, followed by
// the stack of the first error that carries one.
func Trace(err error) []string {
	var (
		frames []string
		stack  []byte
	)
	for e := err; e != nil; e = errors.Unwrap(e) {
		frames = append(frames, fmt.Sprintf("%T: %s", e, e.Error()))
		if st, ok := e.(StackTracer); ok && stack == nil {
			stack = st.Stack()
		}
	}
	if len(stack) > 0 {
		frames = append(frames, strings.Split(strings.TrimRight(string(stack), "\n"), "\n")...)
	}
	return frames
}

func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
