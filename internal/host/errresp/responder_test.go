package errresp

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/hostlink-go/internal/core/domain"
	"github.com/yndnr/hostlink-go/internal/host/listener"
)

func newResponder(t *testing.T, cfg Config) *Responder {
	t.Helper()
	r, err := New(cfg, WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func newContext(accept string) (*listener.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/thing", nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	return listener.NewContext(rec, req), rec
}

func TestRespond_DomainErrorJSON(t *testing.T) {
	r := newResponder(t, Config{})
	c, rec := newContext("application/json")

	r.Respond(c, fmt.Errorf("limiter: %w", domain.ErrRateLimited))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, ContentTypeJSON) {
		t.Errorf("Content-Type = %q, want json", ct)
	}
	if !c.Closed() {
		t.Error("context not closed")
	}

	var body Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Kind != "HL-REQ-4290" {
		t.Errorf("Kind = %q, want HL-REQ-4290", body.Kind)
	}
	if body.Message != domain.ErrRateLimited.Message {
		t.Errorf("Message = %q, want %q", body.Message, domain.ErrRateLimited.Message)
	}
	if body.RequestID != c.ID {
		t.Errorf("RequestID = %q, want %q", body.RequestID, c.ID)
	}
	if body.Timestamp == 0 {
		t.Error("Timestamp is zero")
	}
	if len(body.Trace) != 0 {
		t.Errorf("Trace = %v, want none without IncludeTrace", body.Trace)
	}
}

func TestRespond_PlainErrorIs500(t *testing.T) {
	r := newResponder(t, Config{})
	c, rec := newContext("")

	r.Respond(c, fmt.Errorf("load: %w", errors.New("disk gone")))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	var body Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Kind != "errors.errorString" {
		t.Errorf("Kind = %q, want errors.errorString", body.Kind)
	}
	if body.Message != "load: disk gone" {
		t.Errorf("Message = %q", body.Message)
	}
}

func TestRespond_StatusError(t *testing.T) {
	r := newResponder(t, Config{})
	c, rec := newContext("")

	r.Respond(c, domain.NewStatusError(http.StatusConflict, "Version Mismatch"))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if got := rec.Header().Get(HeaderStatusDescription); got != "Version Mismatch" {
		t.Errorf("%s = %q, want Version Mismatch", HeaderStatusDescription, got)
	}
}

type badStatus struct{}

func (badStatus) Error() string             { return "bad" }
func (badStatus) StatusCode() int           { return 42 }
func (badStatus) StatusDescription() string { return "nope" }

func TestRespond_InvalidStatusFallsBackTo500(t *testing.T) {
	r := newResponder(t, Config{})
	c, rec := newContext("")

	r.Respond(c, badStatus{})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRespond_Negotiation(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{"", ContentTypeJSON},
		{"*/*", ContentTypeJSON},
		{"application/json", ContentTypeJSON},
		{"application/xml", ContentTypeXML},
		{"text/html, application/xml;q=0.9", ContentTypeXML},
		{"application/yaml", ContentTypeYAML},
		{"text/*", ContentTypeText},
		{"text/plain", ContentTypeText},
		{"image/png", ContentTypeJSON},
	}

	r := newResponder(t, Config{})
	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			c, rec := newContext(tt.accept)
			r.Respond(c, domain.ErrBadRequest)

			ct := rec.Header().Get("Content-Type")
			if !strings.HasPrefix(ct, tt.want) {
				t.Errorf("Accept %q: Content-Type = %q, want %q", tt.accept, ct, tt.want)
			}
		})
	}
}

func TestRespond_DefaultContentType(t *testing.T) {
	r := newResponder(t, Config{DefaultContentType: ContentTypeYAML})
	c, rec := newContext("image/png")

	r.Respond(c, domain.ErrBadRequest)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, ContentTypeYAML) {
		t.Fatalf("Content-Type = %q, want yaml", ct)
	}
	var body Body
	if err := yaml.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if body.Kind != "HL-REQ-4000" {
		t.Errorf("Kind = %q, want HL-REQ-4000", body.Kind)
	}
}

func TestRespond_XMLBody(t *testing.T) {
	r := newResponder(t, Config{IncludeTrace: true})
	c, rec := newContext("application/xml")

	r.Respond(c, fmt.Errorf("outer: %w", domain.ErrRouteNotFound))

	var body Body
	if err := xml.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode xml: %v\n%s", err, rec.Body.String())
	}
	if body.Kind != "HL-REQ-4040" {
		t.Errorf("Kind = %q, want HL-REQ-4040", body.Kind)
	}
	if len(body.Trace) != 2 {
		t.Errorf("Trace has %d frames, want 2: %v", len(body.Trace), body.Trace)
	}
}

func TestNew_UnknownDefaultContentType(t *testing.T) {
	if _, err := New(Config{DefaultContentType: "application/msgpack"}); err == nil {
		t.Error("New() should reject a default content type without serializer")
	}
}

type stackErr struct{}

func (stackErr) Error() string { return "panic: boom" }
func (stackErr) Stack() []byte { return []byte("goroutine 1 [running]:\nmain.main()\n") }

func TestRespond_TraceIncludesStack(t *testing.T) {
	r := newResponder(t, Config{IncludeTrace: true})
	c, rec := newContext("")

	r.Respond(c, fmt.Errorf("process: %w", stackErr{}))

	var body Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	joined := strings.Join(body.Trace, "\n")
	if !strings.Contains(joined, "goroutine 1 [running]:") {
		t.Errorf("Trace missing stack: %v", body.Trace)
	}
	if body.Kind != "errresp.stackErr" {
		t.Errorf("Kind = %q, want errresp.stackErr", body.Kind)
	}
}

type failingSerializer struct{}

func (failingSerializer) ContentType() string          { return "application/broken" }
func (failingSerializer) Marshal(Body) ([]byte, error) { return nil, errors.New("cannot encode") }

func TestRespond_SerializerFailureIsSwallowed(t *testing.T) {
	r := newResponder(t, Config{
		DefaultContentType: "application/broken",
		Serializers:        []Serializer{failingSerializer{}},
	})
	c, rec := newContext("")

	r.Respond(c, domain.ErrHostNotListening)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !c.Closed() {
		t.Error("context not closed after serializer failure")
	}
}

type panicSerializer struct{}

func (panicSerializer) ContentType() string          { return ContentTypeJSON }
func (panicSerializer) Marshal(Body) ([]byte, error) { panic("serializer exploded") }

func TestRespond_PanicIsSwallowed(t *testing.T) {
	r := newResponder(t, Config{Serializers: []Serializer{panicSerializer{}}})
	c, _ := newContext("")

	r.Respond(c, errors.New("boom"))

	if !c.Closed() {
		t.Error("context not closed after serializer panic")
	}
}

type brokenWriter struct {
	header http.Header
	code   int
}

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) WriteHeader(code int)      { w.code = code }
func (w *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestRespond_WriteFailureIsSwallowed(t *testing.T) {
	r := newResponder(t, Config{})
	w := &brokenWriter{header: make(http.Header)}
	c := listener.NewContext(w, httptest.NewRequest(http.MethodGet, "/", nil))

	r.Respond(c, domain.ErrInternalServer)

	if w.code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.code)
	}
	if !c.Closed() {
		t.Error("context not closed after write failure")
	}
}

func TestRespond_AlreadyStartedResponse(t *testing.T) {
	r := newResponder(t, Config{})
	c, rec := newContext("")
	c.Response.WriteHeader(http.StatusOK)
	_, _ = c.Response.Write([]byte("partial"))

	r.Respond(c, errors.New("late failure"))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "partial" {
		t.Errorf("body = %q, want partial", rec.Body.String())
	}
	if !c.Closed() {
		t.Error("context not closed")
	}
}

func TestRespond_ClosedContext(t *testing.T) {
	r := newResponder(t, Config{})
	c, rec := newContext("")
	_ = c.Close()

	r.Respond(c, errors.New("after release"))

	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"domain", domain.ErrPanic, "HL-SYS-5001"},
		{"wrapped domain", fmt.Errorf("a: %w", domain.ErrBadRequest), "HL-REQ-4000"},
		{"plain", errors.New("x"), "errors.errorString"},
		{"status error", domain.NewStatusError(http.StatusGone, ""), "domain.StatusError"},
		{"nil", nil, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextSerializer(t *testing.T) {
	data, err := TextSerializer{}.Marshal(Body{
		Kind:      "HL-REQ-4000",
		Message:   "bad request",
		RequestID: "01ABC",
		Timestamp: 7,
		Trace:     []string{"frame"},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := "HL-REQ-4000: bad request\nrequest_id: 01ABC\ntimestamp: 7\n\tframe\n"
	if string(data) != want {
		t.Errorf("Marshal() = %q, want %q", data, want)
	}
}
