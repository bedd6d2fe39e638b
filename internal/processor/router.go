package processor

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yndnr/hostlink-go/internal/core/domain"
	"github.com/yndnr/hostlink-go/internal/infra/buildinfo"
)

// maxEchoBody bounds how much of a request body /echo reads back.
const maxEchoBody = 64 << 10

// Config holds configuration for the pipeline.
type Config struct {
	// Prefix is the path the host listens under, such as "/app/".
	Prefix string

	// Ready reports whether the host is accepting requests.
	Ready func() bool

	// Metrics serves /metrics when non-nil.
	Metrics     http.Handler
	MetricsPath string

	// RateLimit is requests per second per client IP. 0 disables limiting.
	RateLimit float64
	RateBurst int

	Logger *slog.Logger
}

// New builds the pipeline handler.
func New(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Audit(cfg.Logger))
	if cfg.RateLimit > 0 {
		r.Use(RateLimit(NewLimiterRegistry(cfg.RateLimit, cfg.RateBurst)))
	}

	r.NotFound(ErrorHandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return domain.ErrRouteNotFound.WithDetails(r.URL.Path)
	}).ServeHTTP)
	r.MethodNotAllowed(ErrorHandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return domain.ErrMethodNotAllowed.WithDetails(r.Method + " " + r.URL.Path)
	}).ServeHTTP)

	routes := func(r chi.Router) {
		r.Method(http.MethodGet, "/health", ErrorHandlerFunc(health))
		r.Method(http.MethodGet, "/ready", ErrorHandlerFunc(ready(cfg.Ready)))
		r.Method(http.MethodGet, "/version", ErrorHandlerFunc(version))
		r.Handle("/echo", ErrorHandlerFunc(echo))
		if cfg.Metrics != nil {
			r.Method(http.MethodGet, cfg.MetricsPath, cfg.Metrics)
		}
	}

	prefix := strings.TrimSuffix(cfg.Prefix, "/")
	if prefix == "" {
		routes(r)
		return r
	}
	r.Route(prefix, routes)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func health(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func ready(isReady func() bool) ErrorHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		if isReady != nil && !isReady() {
			return domain.ErrHostNotListening
		}
		return writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func version(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, buildinfo.Get())
}

// EchoResponse is what /echo returns.
type EchoResponse struct {
	Method    string              `json:"method"`
	Path      string              `json:"path"`
	Query     string              `json:"query,omitempty"`
	Headers   map[string][]string `json:"headers"`
	Body      string              `json:"body,omitempty"`
	RequestID string              `json:"request_id"`
}

func echo(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEchoBody+1))
	if err != nil {
		return domain.ErrBadRequest.WithCause(err)
	}
	if len(body) > maxEchoBody {
		return domain.NewStatusError(http.StatusRequestEntityTooLarge, "")
	}

	return writeJSON(w, http.StatusOK, EchoResponse{
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     r.URL.RawQuery,
		Headers:   r.Header,
		Body:      string(body),
		RequestID: w.Header().Get(HeaderRequestID),
	})
}
