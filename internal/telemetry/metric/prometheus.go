package metric

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hostlink"

// Registry holds all application metrics.
type Registry struct {
	reg        prometheus.Registerer
	registered []prometheus.Collector

	// Accept metrics
	AcceptsTotal   prometheus.Counter
	AcceptsPending prometheus.Gauge

	// Request metrics
	RequestsDispatched    prometheus.Counter
	RequestErrors         *prometheus.CounterVec
	ErrorResponseFailures prometheus.Counter
	RequestDuration       prometheus.Histogram

	// Lifecycle metrics
	ListenerState prometheus.Gauge
	Reservations  *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Registry, error) {
	r := &Registry{
		reg: reg,
		AcceptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accepts_total",
			Help:      "Accepts issued on the listener handle.",
		}),
		AcceptsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accepts_pending",
			Help:      "Outstanding accepts (0 or 1).",
		}),
		RequestsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_dispatched_total",
			Help:      "Requests handed to the processor.",
		}),
		RequestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Requests that failed in the processor, by error kind.",
		}, []string{"kind"}),
		ErrorResponseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "error_response_failures_total",
			Help:      "Error responses that could not be serialized or written.",
		}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from accept to context release.",
			Buckets:   prometheus.DefBuckets,
		}),
		ListenerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listener_state",
			Help:      "Listener state: 0 stopped, 1 starting, 2 listening.",
		}),
		Reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Address reservation attempts, by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{
		r.AcceptsTotal,
		r.AcceptsPending,
		r.RequestsDispatched,
		r.RequestErrors,
		r.ErrorResponseFailures,
		r.RequestDuration,
		r.ListenerState,
		r.Reservations,
	} {
		if err := r.register(c); err != nil {
			r.Unregister()
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) register(c prometheus.Collector) error {
	if r.reg == nil {
		return nil
	}
	if err := r.reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return fmt.Errorf("metric already registered: %w", err)
		}
		return fmt.Errorf("register metric: %w", err)
	}
	r.registered = append(r.registered, c)
	return nil
}

// Unregister removes every collector this registry registered.
func (r *Registry) Unregister() {
	if r == nil || r.reg == nil {
		return
	}
	for _, c := range r.registered {
		r.reg.Unregister(c)
	}
	r.registered = nil
}

// AcceptIssued counts an accept and marks it pending.
func (r *Registry) AcceptIssued() {
	if r == nil {
		return
	}
	r.AcceptsTotal.Inc()
	r.AcceptsPending.Set(1)
}

// AcceptCompleted clears the pending accept.
func (r *Registry) AcceptCompleted() {
	if r == nil {
		return
	}
	r.AcceptsPending.Set(0)
}

// RequestDispatched counts a request handed to the processor.
func (r *Registry) RequestDispatched() {
	if r == nil {
		return
	}
	r.RequestsDispatched.Inc()
}

// RequestFailed counts a processor failure of the given kind.
func (r *Registry) RequestFailed(kind string) {
	if r == nil {
		return
	}
	r.RequestErrors.WithLabelValues(kind).Inc()
}

// ErrorResponseFailed counts an error response that could not be delivered.
func (r *Registry) ErrorResponseFailed() {
	if r == nil {
		return
	}
	r.ErrorResponseFailures.Inc()
}

// ObserveRequest records the processing time of one request.
func (r *Registry) ObserveRequest(d time.Duration) {
	if r == nil {
		return
	}
	r.RequestDuration.Observe(d.Seconds())
}

// SetListenerState publishes the listener state.
func (r *Registry) SetListenerState(state int) {
	if r == nil {
		return
	}
	r.ListenerState.Set(float64(state))
}

// Reservation counts a reservation attempt with the given result label.
func (r *Registry) Reservation(result string) {
	if r == nil {
		return
	}
	r.Reservations.WithLabelValues(result).Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
