package processor

import (
	"net/http"
	"strconv"

	"github.com/yndnr/hostlink-go/internal/core/domain"
	"github.com/yndnr/hostlink-go/internal/host"
)

// ErrorHandlerFunc is an http.HandlerFunc that can fail.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP calls f and reports its error.
func (f ErrorHandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := f(w, r); err != nil {
		fail(w, r, err)
	}
}

// fail hands err to the host. Without a host it writes the status line
// and error text directly.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	if host.Fail(r, err) {
		return
	}
	status := http.StatusInternalServerError
	if he, ok := domain.AsHTTPError(err); ok {
		status = he.StatusCode()
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Length", strconv.Itoa(len(err.Error())+1))
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error() + "\n"))
}
