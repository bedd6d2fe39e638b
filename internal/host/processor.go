package host

import (
	"context"
	"net/http"

	"github.com/yndnr/hostlink-go/internal/host/listener"
)

// Processor handles one accepted request. A returned error is rendered by
// the host's ErrorResponder. The host releases c after Process returns.
type Processor interface {
	Process(ctx context.Context, c *listener.Context) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, c *listener.Context) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, c *listener.Context) error {
	return f(ctx, c)
}

// ErrorResponder renders a request failure and releases the context.
type ErrorResponder interface {
	Respond(c *listener.Context, err error)
}

type failureKey struct{}

type failure struct {
	err error
}

// HandlerProcessor adapts an http.Handler. A handler reports a failure with
// Fail instead of writing the error response itself.
func HandlerProcessor(next http.Handler) Processor {
	return ProcessorFunc(func(ctx context.Context, c *listener.Context) error {
		f := &failure{}
		r := c.Request.WithContext(context.WithValue(ctx, failureKey{}, f))
		next.ServeHTTP(c.Response, r)
		return f.err
	})
}

// Fail records err as the failure of a request served through
// HandlerProcessor. The first recorded error wins. It reports false when r
// was not served by a host.
func Fail(r *http.Request, err error) bool {
	f, ok := r.Context().Value(failureKey{}).(*failure)
	if !ok {
		return false
	}
	if f.err == nil {
		f.err = err
	}
	return true
}
