package errresp

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/munnerz/goautoneg"

	"github.com/yndnr/hostlink-go/internal/core/domain"
	"github.com/yndnr/hostlink-go/internal/host/listener"
	"github.com/yndnr/hostlink-go/internal/telemetry/metric"
)

// HeaderStatusDescription carries a status description that differs from
// the standard reason phrase, which net/http does not let us override.
const HeaderStatusDescription = "X-Status-Description"

// Config configures a Responder.
type Config struct {
	// IncludeTrace adds the error chain and panic stacks to the body.
	IncludeTrace bool
	// DefaultContentType is used when negotiation selects nothing.
	DefaultContentType string
	// Serializers replaces DefaultSerializers when non-empty.
	Serializers []Serializer
}

// Responder writes error responses.
type Responder struct {
	includeTrace bool
	fallback     Serializer
	offers       []string
	byType       map[string]Serializer

	logger  *slog.Logger
	metrics *metric.Registry
	now     func() time.Time
}

// Option configures a Responder.
type Option func(*Responder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(r *Responder) {
		r.metrics = m
	}
}

// New creates a Responder. DefaultContentType must name one of the
// serializers; an empty value selects JSON.
func New(cfg Config, opts ...Option) (*Responder, error) {
	serializers := cfg.Serializers
	if len(serializers) == 0 {
		serializers = DefaultSerializers()
	}
	def := cfg.DefaultContentType
	if def == "" {
		def = ContentTypeJSON
	}

	r := &Responder{
		includeTrace: cfg.IncludeTrace,
		byType:       make(map[string]Serializer, len(serializers)),
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, s := range serializers {
		r.byType[s.ContentType()] = s
	}

	fallback, ok := r.byType[def]
	if !ok {
		return nil, fmt.Errorf("errresp: no serializer for default content type %q", def)
	}
	r.fallback = fallback

	// The default leads so that wildcard Accept headers select it.
	r.offers = append(r.offers, def)
	for _, s := range serializers {
		if s.ContentType() != def {
			r.offers = append(r.offers, s.ContentType())
		}
	}

	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Respond writes the error response for err and closes c. It never fails:
// delivery problems are logged and counted.
func (r *Responder) Respond(c *listener.Context, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.failed(c, "error response panicked", fmt.Errorf("panic: %v", p))
		}
		_ = c.Close()
	}()

	if c.Closed() {
		r.logger.Debug("error response skipped, context already released",
			"request_id", c.ID, "error", err)
		return
	}

	status, desc := Status(err)
	if c.HeaderWritten() {
		r.logger.Warn("error after response started, closing without error body",
			"request_id", c.ID, "status", c.Status(), "error", err)
		return
	}

	s := r.Negotiate(c.Request.Header.Get("Accept"))
	body := NewBody(err, c.ID, r.now(), r.includeTrace)

	data, mErr := s.Marshal(body)
	if mErr != nil {
		c.Response.WriteHeader(status)
		r.failed(c, "serialize error response", mErr)
		return
	}

	h := c.Response.Header()
	h.Set("Content-Type", s.ContentType()+"; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("X-Content-Type-Options", "nosniff")
	if desc != "" && desc != http.StatusText(status) {
		h.Set(HeaderStatusDescription, desc)
	}
	c.Response.WriteHeader(status)

	if _, wErr := c.Response.Write(data); wErr != nil {
		r.failed(c, "write error response", wErr)
	}
}

// Negotiate returns the serializer for an Accept header, or the default
// serializer when nothing matches.
func (r *Responder) Negotiate(accept string) Serializer {
	if accept == "" {
		return r.fallback
	}
	if ct := goautoneg.Negotiate(accept, r.offers); ct != "" {
		if s, ok := r.byType[ct]; ok {
			return s
		}
	}
	return r.fallback
}

func (r *Responder) failed(c *listener.Context, msg string, err error) {
	r.metrics.ErrorResponseFailed()
	r.logger.Warn(msg, "request_id", c.ID, "error", err)
}

// Status returns the HTTP status and description for err.
func Status(err error) (int, string) {
	if he, ok := domain.AsHTTPError(err); ok {
		if code := he.StatusCode(); code >= 100 && code <= 599 {
			return code, he.StatusDescription()
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
