package listener

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

type contextKey string

const requestIDKey contextKey = "hostlink.listener.request_id"

// RequestID returns the id the handle assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Context is one accepted request/response pair.
//
// Ownership moves from the handle to whoever BeginAccept delivered it to.
// Close releases it; after Close the response can no longer be written and
// the connection is handed back to net/http.
type Context struct {
	Request  *http.Request
	Response http.ResponseWriter
	ID       string
	Received time.Time

	rw     *responseWriter
	done   chan struct{}
	closed atomic.Bool
}

// NewContext wraps a net/http request/response pair. Handles create one per
// queued request; adapters and tests may build their own.
func NewContext(w http.ResponseWriter, r *http.Request) *Context {
	id := ulid.Make().String()
	rw := &responseWriter{w: w, status: http.StatusOK}
	return &Context{
		Request:  r.WithContext(context.WithValue(r.Context(), requestIDKey, id)),
		Response: rw,
		ID:       id,
		Received: time.Now(),
		rw:       rw,
		done:     make(chan struct{}),
	}
}

// Close releases the context. It is safe to call more than once.
func (c *Context) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.rw.seal()
	close(c.done)
	return nil
}

// Abort replies with a bare status, unless something was already written,
// and releases the context.
func (c *Context) Abort(status int) {
	if c.closed.Load() {
		return
	}
	if !c.rw.HeaderWritten() {
		http.Error(c.Response, http.StatusText(status), status)
	}
	_ = c.Close()
}

// Closed reports whether Close was called.
func (c *Context) Closed() bool {
	return c.closed.Load()
}

// Done is closed by Close.
func (c *Context) Done() <-chan struct{} {
	return c.done
}

// Status returns the response status written so far (200 if none).
func (c *Context) Status() int {
	return c.rw.Status()
}

// HeaderWritten reports whether the status line has been sent.
func (c *Context) HeaderWritten() bool {
	return c.rw.HeaderWritten()
}

// BytesWritten returns the number of body bytes written.
func (c *Context) BytesWritten() int64 {
	return c.rw.BytesWritten()
}

// responseWriter guards the net/http writer against use after release
// and records what was written.
type responseWriter struct {
	mu          sync.Mutex
	w           http.ResponseWriter
	status      int
	wroteHeader bool
	bytes       int64
	sealed      bool
}

func (rw *responseWriter) Header() http.Header {
	return rw.w.Header()
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.sealed || rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.w.WriteHeader(code)
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.sealed {
		return 0, ErrContextClosed
	}
	rw.wroteHeader = true
	n, err := rw.w.Write(p)
	rw.bytes += int64(n)
	return n, err
}

// Flush implements http.Flusher when the underlying writer does.
func (rw *responseWriter) Flush() {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.sealed {
		return
	}
	if f, ok := rw.w.(http.Flusher); ok {
		rw.wroteHeader = true
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the net/http writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.w
}

func (rw *responseWriter) seal() {
	rw.mu.Lock()
	rw.sealed = true
	rw.mu.Unlock()
}

func (rw *responseWriter) Status() int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.status
}

func (rw *responseWriter) HeaderWritten() bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.wroteHeader
}

func (rw *responseWriter) BytesWritten() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.bytes
}
