package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yndnr/hostlink-go/internal/core/domain"
	"github.com/yndnr/hostlink-go/internal/host/errresp"
	"github.com/yndnr/hostlink-go/internal/host/listener"
)

// acceptLoop keeps one accept outstanding on r's handle until the run
// ends. ctx is cancelled by Stop.
func (h *Host) acceptLoop(ctx context.Context, r *loopRun) {
	defer close(r.done)

	handle := r.handle
	callback := func(c *listener.Context, err error) {
		h.onAccept(ctx, r, c, err)
	}

	for h.active(r) {
		r.signal.Arm()

		if err := handle.BeginAccept(callback); err != nil {
			r.signal.Disarm()
			if !h.active(r) {
				h.logger.Debug("accept not issued, host stopping", "error", err)
				break
			}
			h.loopFailed(r, fmt.Errorf("begin accept: %w", err))
			return
		}
		h.metrics.AcceptIssued()

		r.signal.Wait()
	}

	if err := handle.Err(); err != nil {
		h.loopFailed(r, err)
		return
	}
	h.logger.Debug("accept loop exited", "address", handle.Address().String())
}

// loopFailed records err as the reason r ended, unless Stop ended it first.
func (h *Host) loopFailed(r *loopRun, err error) {
	if !r.alive.CompareAndSwap(true, false) {
		h.logger.Debug("accept loop exited while stopping", "error", err)
		return
	}
	h.setLoopErr(err)
	h.metrics.SetListenerState(int(StateStopped))
	h.logger.Error("accept loop failed, listener must be restarted",
		"address", r.handle.Address().String(), "error", err)
}

// onAccept runs on a handle goroutine once per BeginAccept. The signal is
// set on every path so the loop can issue the next accept.
func (h *Host) onAccept(ctx context.Context, r *loopRun, c *listener.Context, err error) {
	defer r.signal.Set()

	h.metrics.AcceptCompleted()

	if !h.active(r) {
		h.logger.Debug("accept completed after shutdown", "error", err)
		if c != nil {
			c.Abort(http.StatusServiceUnavailable)
		}
		return
	}

	if err != nil {
		if errors.Is(err, listener.ErrOperationAborted) {
			h.logger.Debug("accept aborted", "error", err)
		} else {
			h.logger.Warn("accept failed", "error", err)
		}
		return
	}

	h.dispatch(ctx, c)
}

// dispatch processes c inline, or hands it to a worker once a slot is free.
// The hand-off completes before the callback returns so that no second
// accept is issued while every worker is busy.
func (h *Host) dispatch(ctx context.Context, c *listener.Context) {
	h.metrics.RequestDispatched()

	if h.sem == nil {
		h.process(c)
		return
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		h.logger.Debug("dispatch cancelled, host stopping", "request_id", c.ID, "error", err)
		h.respond(c, domain.ErrHostNotListening.WithCause(err))
		return
	}

	h.workers.Add(1)
	go func() {
		defer h.workers.Done()
		defer h.sem.Release(1)
		h.process(c)
	}()
}

// process runs the processor for c and releases c whatever happens.
func (h *Host) process(c *listener.Context) {
	start := time.Now()
	defer func() {
		_ = c.Close()
		h.metrics.ObserveRequest(time.Since(start))
	}()

	if err := h.invoke(c); err != nil {
		kind := errresp.Kind(err)
		h.metrics.RequestFailed(kind)

		var pe *PanicError
		if errors.As(err, &pe) {
			h.logger.Error("request processor panicked", "request_id", c.ID, "panic", pe.Value)
		} else {
			h.logger.Debug("request processing failed", "request_id", c.ID, "kind", kind, "error", err)
		}
		h.respond(c, err)
	}
}

func (h *Host) invoke(c *listener.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = newPanicError(p)
		}
	}()
	return h.processor.Process(c.Request.Context(), c)
}

func (h *Host) respond(c *listener.Context, err error) {
	defer func() {
		if p := recover(); p != nil {
			h.metrics.ErrorResponseFailed()
			h.logger.Warn("error responder panicked", "request_id", c.ID, "panic", p)
		}
		_ = c.Close()
	}()
	h.responder.Respond(c, err)
}
