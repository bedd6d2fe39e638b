package listener

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultReadHeaderTimeout bounds how long a client may take to send headers.
const DefaultReadHeaderTimeout = 10 * time.Second

// ListenFunc opens the socket for a handle.
type ListenFunc func(network, address string) (net.Listener, error)

// Handle is the bound socket of one address.
type Handle struct {
	addr              *Address
	listen            ListenFunc
	logger            *slog.Logger
	errorLog          *log.Logger
	readHeaderTimeout time.Duration

	mu        sync.Mutex
	ln        net.Listener
	srv       *http.Server
	serveDone chan struct{}
	isClosed  bool

	closed   chan struct{}
	broken   chan struct{}
	serveErr error

	listening atomic.Bool
	pending   atomic.Int32
	accepts   atomic.Uint64

	queue chan *Context
}

// Option configures a Handle.
type Option func(*Handle)

// WithLogger sets the logger for the handle.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handle) {
		h.logger = logger
	}
}

// WithListenFunc replaces net.Listen.
func WithListenFunc(fn ListenFunc) Option {
	return func(h *Handle) {
		h.listen = fn
	}
}

// WithErrorLog sets the net/http server error log.
func WithErrorLog(l *log.Logger) Option {
	return func(h *Handle) {
		h.errorLog = l
	}
}

// WithReadHeaderTimeout sets the header read timeout.
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(h *Handle) {
		h.readHeaderTimeout = d
	}
}

// New creates a handle for addr. The socket is not bound until Start.
func New(addr *Address, opts ...Option) *Handle {
	h := &Handle{
		addr:              addr,
		listen:            net.Listen,
		logger:            slog.Default(),
		readHeaderTimeout: DefaultReadHeaderTimeout,
		closed:            make(chan struct{}),
		broken:            make(chan struct{}),
		queue:             make(chan *Context),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Start binds the socket and starts parsing requests.
func (h *Handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.isClosed {
		return ErrClosed
	}
	if h.srv != nil {
		return ErrAlreadyListening
	}

	ln, err := h.listen("tcp", h.addr.ListenAddr())
	if err != nil {
		if isAccessDenied(err) {
			return fmt.Errorf("listen %s: %w: %w", h.addr, ErrAccessDenied, err)
		}
		return fmt.Errorf("listen %s: %w", h.addr, err)
	}

	h.ln = ln
	h.srv = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: h.readHeaderTimeout,
		ErrorLog:          h.errorLog,
	}
	h.serveDone = make(chan struct{})
	h.listening.Store(true)

	go h.serve(h.srv, ln, h.serveDone)

	h.logger.Debug("listener bound", "address", h.addr.String(), "local", ln.Addr().String())
	return nil
}

func (h *Handle) serve(srv *http.Server, ln net.Listener, done chan struct{}) {
	defer close(done)

	err := srv.Serve(ln)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}

	h.logger.Error("listener serve failed", "address", h.addr.String(), "error", err)
	h.serveErr = err
	// broken closes first so that a caller seeing !IsListening finds Err set.
	close(h.broken)
	h.listening.Store(false)
}

// ServeHTTP queues a parsed request until an accept picks it up, then
// blocks until the receiver closes the Context.
func (h *Handle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.addr.Matches(r.URL.Path) {
		http.NotFound(w, r)
		return
	}

	c := NewContext(w, r)
	select {
	case h.queue <- c:
	case <-h.closed:
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	case <-h.broken:
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	<-c.done
}

// BeginAccept requests the next Context. callback runs on its own goroutine
// exactly once: with a Context when a request arrives, or with an error
// when the handle is closed first.
func (h *Handle) BeginAccept(callback func(*Context, error)) error {
	if !h.listening.Load() {
		if err := h.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrNotListening, err)
		}
		return ErrNotListening
	}
	if !h.pending.CompareAndSwap(0, 1) {
		return ErrAcceptPending
	}
	h.accepts.Add(1)

	go func() {
		var (
			c   *Context
			err error
		)
		select {
		case c = <-h.queue:
		case <-h.closed:
			err = ErrOperationAborted
		case <-h.broken:
			err = h.serveErr
		}
		h.pending.Store(0)
		callback(c, err)
	}()

	return nil
}

// Close stops listening, aborts an outstanding accept, and waits for
// in-flight requests under ctx. It returns an error wrapping
// ErrOperationAborted when an accept was outstanding. Closing twice is a
// no-op.
func (h *Handle) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.isClosed {
		h.mu.Unlock()
		return nil
	}
	h.isClosed = true
	h.listening.Store(false)
	close(h.closed)
	aborted := h.pending.Load() > 0
	srv, ln, done := h.srv, h.ln, h.serveDone
	h.mu.Unlock()

	if srv == nil {
		return nil
	}

	var err error
	if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil && !IsExpectedCloseError(shutdownErr) {
		_ = srv.Close()
		err = fmt.Errorf("shutdown %s: %w", h.addr, shutdownErr)
	}
	// Serve may not have tracked the listener yet.
	if closeErr := ln.Close(); closeErr != nil && !IsExpectedCloseError(closeErr) && err == nil {
		err = fmt.Errorf("close %s: %w", h.addr, closeErr)
	}
	<-done

	if err != nil {
		return err
	}
	if aborted {
		return fmt.Errorf("close %s: %w", h.addr, ErrOperationAborted)
	}
	return nil
}

// IsListening reports whether the handle is bound and serving.
func (h *Handle) IsListening() bool {
	return h.listening.Load()
}

// Err returns the error that stopped the server unexpectedly, if any.
func (h *Handle) Err() error {
	select {
	case <-h.broken:
		return h.serveErr
	default:
		return nil
	}
}

// Address returns the address the handle was created for.
func (h *Handle) Address() *Address {
	return h.addr
}

// Addr returns the bound socket address, nil before Start.
func (h *Handle) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln == nil {
		return nil
	}
	return h.ln.Addr()
}

// PendingAccepts returns the number of outstanding accepts (0 or 1).
func (h *Handle) PendingAccepts() int {
	return int(h.pending.Load())
}

// AcceptsIssued returns how many accepts were issued over the handle's life.
func (h *Handle) AcceptsIssued() uint64 {
	return h.accepts.Load()
}
