package host

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yndnr/hostlink-go/internal/host/errresp"
	"github.com/yndnr/hostlink-go/internal/host/handshake"
	"github.com/yndnr/hostlink-go/internal/host/listener"
	"github.com/yndnr/hostlink-go/internal/host/reservation"
	"github.com/yndnr/hostlink-go/internal/telemetry/metric"
)

// DefaultShutdownTimeout bounds Close.
const DefaultShutdownTimeout = 30 * time.Second

// Config holds host configuration.
type Config struct {
	// AllowAutomaticURLReservation lets Start ask the Reserver for the
	// address when the bind is refused for lack of permission.
	AllowAutomaticURLReservation bool
	// DispatchWorkers bounds concurrent processing. Zero processes each
	// request inside its accept callback.
	DispatchWorkers int
	// ShutdownTimeout bounds the Stop performed by Close.
	ShutdownTimeout time.Duration
	// ReadHeaderTimeout is passed to the listener handle.
	ReadHeaderTimeout time.Duration
}

// Host runs a Processor behind a listener handle.
type Host struct {
	cfg       Config
	processor Processor
	responder ErrorResponder
	reserver  reservation.Reserver
	logger    *slog.Logger
	errorLog  *log.Logger
	metrics   *metric.Registry
	listen    listener.ListenFunc
	counters  handshake.Counters
	sem       *semaphore.Weighted

	// mu serializes Start, Stop and Close. The accept callback never takes it.
	mu       sync.Mutex
	address  *listener.Address
	token    *reservation.Token
	loopDone chan struct{}
	workers  sync.WaitGroup
	disposed bool

	state atomic.Int32
	run   atomic.Pointer[loopRun]

	errMu   sync.Mutex
	loopErr error
}

// loopRun is the handle and accept loop of one Start. Each run has its own
// handshake signal, so a callback outliving its run cannot wake the next
// loop.
type loopRun struct {
	handle *listener.Handle
	signal *handshake.Signal
	cancel context.CancelFunc
	done   chan struct{}
	// alive is cleared by Stop, or by the loop when it fails.
	alive atomic.Bool
}

// Option configures a Host.
type Option func(*Host)

// WithReserver sets the reserver used after an access-denied bind.
func WithReserver(r reservation.Reserver) Option {
	return func(h *Host) {
		h.reserver = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithErrorLog sets the net/http error log of listener handles.
func WithErrorLog(l *log.Logger) Option {
	return func(h *Host) {
		h.errorLog = l
	}
}

// WithMetrics sets the metrics registry. Close unregisters it.
func WithMetrics(m *metric.Registry) Option {
	return func(h *Host) {
		h.metrics = m
	}
}

// WithListenFunc replaces net.Listen for listener handles.
func WithListenFunc(fn listener.ListenFunc) Option {
	return func(h *Host) {
		h.listen = fn
	}
}

// New creates a stopped host. A nil responder writes JSON error responses.
func New(cfg Config, processor Processor, responder ErrorResponder, opts ...Option) *Host {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = listener.DefaultReadHeaderTimeout
	}

	h := &Host{
		cfg:       cfg,
		processor: processor,
		responder: responder,
		reserver:  reservation.None{},
		logger:    slog.Default(),
		listen:    net.Listen,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.responder == nil {
		// The default config always has a serializer.
		r, _ := errresp.New(errresp.Config{}, errresp.WithLogger(h.logger), errresp.WithMetrics(h.metrics))
		h.responder = r
	}
	if cfg.DispatchWorkers > 0 {
		h.sem = semaphore.NewWeighted(int64(cfg.DispatchWorkers))
	}
	if err := h.metrics.WatchSignal(h.signalStats); err != nil {
		h.logger.Warn("handshake metrics not registered", "error", err)
	}
	h.metrics.SetListenerState(int(StateStopped))

	return h
}

// Start binds address and starts the accept loop. It returns once the
// socket is bound. Start on a listening host is a no-op. A host whose
// accept loop failed is torn down and bound again.
func (h *Host) Start(ctx context.Context, address string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return ErrDisposed
	}
	if r := h.run.Load(); r != nil {
		if h.active(r) {
			return nil
		}
		if err := h.stopLocked(ctx); err != nil {
			h.logger.Warn("tear down failed listener", "error", err)
		}
	}

	addr, err := listener.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("start host: %w", err)
	}

	h.address = addr
	h.setState(StateStarting)

	handle, err := h.bind(ctx, addr)
	if err != nil {
		h.address = nil
		h.setState(StateStopped)
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	r := &loopRun{
		handle: handle,
		signal: handshake.New(&h.counters),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.alive.Store(true)
	h.loopDone = r.done
	h.setLoopErr(nil)

	h.run.Store(r)
	h.setState(StateListening)

	go h.acceptLoop(loopCtx, r)

	h.logger.Info("host listening", "address", addr.String(), "local", handle.Addr().String())
	return nil
}

// bind starts a handle for addr. An access-denied failure is retried once
// after a granted reservation; if the retry fails too, the first bind
// error is returned.
func (h *Host) bind(ctx context.Context, addr *listener.Address) (*listener.Handle, error) {
	handle := listener.New(addr,
		listener.WithLogger(h.logger),
		listener.WithListenFunc(h.listen),
		listener.WithErrorLog(h.errorLog),
		listener.WithReadHeaderTimeout(h.cfg.ReadHeaderTimeout),
	)

	var (
		firstErr error
		retried  bool
	)
	for {
		err := handle.Start()
		if err == nil {
			return handle, nil
		}

		if firstErr == nil {
			firstErr = err
		} else {
			h.logger.Warn("bind failed after reservation", "address", addr.String(), "error", err)
		}

		if !errors.Is(err, listener.ErrAccessDenied) || retried {
			h.releaseToken(ctx)
			return nil, firstErr
		}
		if !h.cfg.AllowAutomaticURLReservation {
			h.logger.Warn("access denied binding address, automatic reservation disabled",
				"address", addr.String())
			return nil, firstErr
		}

		retried = true
		if !h.reserve(ctx, addr) {
			return nil, firstErr
		}
	}
}

func (h *Host) reserve(ctx context.Context, addr *listener.Address) bool {
	h.logger.Info("access denied binding address, requesting reservation", "address", addr.String())

	res := h.reserver.Reserve(ctx, addr)
	h.metrics.Reservation(res.Status.String())

	switch res.Status {
	case reservation.StatusReserved:
		tok := res.Token
		h.token = &tok
		return true
	case reservation.StatusNotSupported:
		h.logger.Warn("address reservation not supported", "address", addr.String())
	default:
		h.logger.Warn("address reservation failed", "address", addr.String(), "error", res.Err)
	}
	return false
}

func (h *Host) releaseToken(ctx context.Context) {
	if h.token == nil {
		return
	}
	tok := *h.token
	h.token = nil

	if err := h.reserver.Release(ctx, tok); err != nil && !errors.Is(err, reservation.ErrNotConfigured) {
		h.logger.Warn("release address reservation", "address", tok.Address, "error", err)
	}
}

// Stop closes the listener handle, waits for the accept loop to exit under
// ctx and releases the reservation. Stopping a stopped host is a no-op.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopLocked(ctx)
}

func (h *Host) stopLocked(ctx context.Context) error {
	r := h.run.Load()
	if r == nil {
		return nil
	}

	r.alive.Store(false)
	r.cancel()

	closeErr := r.handle.Close(ctx)

	var waitErr error
	select {
	case <-r.done:
		waitErr = h.waitWorkers(ctx)
	case <-ctx.Done():
		waitErr = fmt.Errorf("wait for accept loop: %w", ctx.Err())
	}

	h.releaseToken(ctx)

	addr := h.address
	h.address = nil
	h.run.Store(nil)
	h.setState(StateStopped)

	h.logger.Info("host stopped", "address", addr.String())

	if closeErr != nil && !listener.IsExpectedCloseError(closeErr) {
		return fmt.Errorf("stop host: %w", closeErr)
	}
	if waitErr != nil {
		return fmt.Errorf("stop host: %w", waitErr)
	}
	return nil
}

func (h *Host) waitWorkers(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for dispatch workers: %w", ctx.Err())
	}
}

// Close stops the host with the configured shutdown timeout and releases
// its metrics. Later calls return nil. A closed host cannot be restarted.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return nil
	}
	h.disposed = true

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.ShutdownTimeout)
	defer cancel()

	err := h.stopLocked(ctx)
	h.metrics.Unregister()
	return err
}

// IsListening reports whether the host accepts requests.
func (h *Host) IsListening() bool {
	r := h.run.Load()
	return r != nil && h.active(r)
}

// active reports whether r is still the host's live run. It is read from
// accept callbacks and must not take mu.
func (h *Host) active(r *loopRun) bool {
	return r.alive.Load() &&
		State(h.state.Load()) == StateListening &&
		h.run.Load() == r &&
		r.handle.IsListening()
}

// State returns the lifecycle state. A host whose accept loop failed
// reports StateStopped.
func (h *Host) State() State {
	s := State(h.state.Load())
	if s == StateListening {
		if r := h.run.Load(); r == nil || !r.alive.Load() {
			return StateStopped
		}
	}
	return s
}

func (h *Host) setState(s State) {
	h.state.Store(int32(s))
	h.metrics.SetListenerState(int(s))
}

// Address returns the bound address, empty when stopped.
func (h *Host) Address() string {
	if r := h.run.Load(); r != nil {
		return r.handle.Address().String()
	}
	return ""
}

// ListenAddr returns the socket address of the bound handle, nil when
// stopped.
func (h *Host) ListenAddr() net.Addr {
	if r := h.run.Load(); r != nil {
		return r.handle.Addr()
	}
	return nil
}

// AcceptsIssued returns how many accepts the current handle has issued,
// zero when stopped.
func (h *Host) AcceptsIssued() uint64 {
	if r := h.run.Load(); r != nil {
		return r.handle.AcceptsIssued()
	}
	return 0
}

// PendingAccepts returns the number of outstanding accepts on the current
// handle (0 or 1).
func (h *Host) PendingAccepts() int {
	if r := h.run.Load(); r != nil {
		return r.handle.PendingAccepts()
	}
	return 0
}

// LoopErr returns the error that ended the last accept loop, if any.
func (h *Host) LoopErr() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.loopErr
}

func (h *Host) setLoopErr(err error) {
	h.errMu.Lock()
	h.loopErr = err
	h.errMu.Unlock()
}

// Done is closed when the current accept loop exits. It is closed already
// when the host was never started.
func (h *Host) Done() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loopDone == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return h.loopDone
}

// SignalStats returns the accept handshake counters summed over every run.
func (h *Host) SignalStats() handshake.Stats {
	return h.counters.Stats()
}

func (h *Host) signalStats() metric.SignalStats {
	s := h.counters.Stats()
	return metric.SignalStats{
		Arms:       s.Arms,
		Sets:       s.Sets,
		Violations: s.Violations,
		Doubled:    s.Doubled,
	}
}
