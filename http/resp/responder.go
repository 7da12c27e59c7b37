package resp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/harvard-lil/restnest/logger"
)

const responderFrames = 1

// Responder maintains reusable pieces for responding to HTTP requests with JSON.
//
// Most oftentimes, setting up a single instance of a Responder suffices for an
// application; the resources mounted on an Api share one.
//
// Beyond Json and Err, a Responder exposes one method per error shape the
// resource dispatch pipeline surfaces: absent objects, ambiguous lookups,
// malformed lookup values, unsupported nested mutations, and so on.
type Responder struct {
	logger logger.Logger

	// Pool of *bytes.Buffer to prerender responses into
	pool *sync.Pool
}

// NewResponder constructs a *Responder using the ResponderOptFns passed in.
func NewResponder(opts ...ResponderOptFn) *Responder {
	d := &Responder{
		pool: &sync.Pool{New: func() any { return new(bytes.Buffer) }},
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logger.New()
	}

	if l, ok := d.logger.(logger.SkipLogger); ok {
		d.logger = l.AddSkip(responderFrames)
	}

	return d
}

// errSchema is the JSON envelope for error responses.
type errSchema struct {
	Error string `json:"error"`
}

// Json writes data as the response body with the given status code,
// prerendering into a pooled buffer so a failed encode never
// writes a partial body.
func (doer *Responder) Json(w http.ResponseWriter, r *http.Request, code int, data any) error {
	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer doer.pool.Put(b)

	if err := json.NewEncoder(b).Encode(data); err != nil {
		doer.Err(w, r, err)
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	if _, err := b.WriteTo(w); err != nil {
		return err
	}

	return nil
}

// Err wraps http.Error(), logging the error causing the failure state.
//
// Use in exceptional circumstances when no structured response can be formed.
func (doer *Responder) Err(w http.ResponseWriter, r *http.Request, err error) {
	var msg string
	if err != nil {
		msg = err.Error()
	}

	doer.logger.Error(msg, &logger.LogContext{Error: err, Request: r})
	http.Error(w, msg, http.StatusInternalServerError)
}

// BadRequest writes a 400 with msg.
func (doer *Responder) BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	doer.errJson(w, r, http.StatusBadRequest, msg)
}

// Unauthorized writes a 401 with msg.
func (doer *Responder) Unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	doer.errJson(w, r, http.StatusUnauthorized, msg)
}

// NotFound writes a 404 with msg.
func (doer *Responder) NotFound(w http.ResponseWriter, r *http.Request, msg string) {
	doer.errJson(w, r, http.StatusNotFound, msg)
}

// MethodNotAllowed writes a 405 naming the allowed methods in the Allow header.
func (doer *Responder) MethodNotAllowed(w http.ResponseWriter, r *http.Request, allowed []string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	doer.errJson(w, r, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}

// MultipleChoices writes a 300 with msg.
// The dispatch pipeline uses it when a lookup matches more than one object.
func (doer *Responder) MultipleChoices(w http.ResponseWriter, r *http.Request, msg string) {
	doer.errJson(w, r, http.StatusMultipleChoices, msg)
}

// TooManyRequests writes a 429.
func (doer *Responder) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	doer.errJson(w, r, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
}

// NotImplemented writes a 501 with msg.
func (doer *Responder) NotImplemented(w http.ResponseWriter, r *http.Request, msg string) {
	doer.errJson(w, r, http.StatusNotImplemented, msg)
}

func (doer *Responder) errJson(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if msg == "" {
		msg = http.StatusText(code)
	}

	if err := doer.Json(w, r, code, errSchema{Error: msg}); err != nil {
		doer.logger.Error(err.Error(), &logger.LogContext{Error: err, Request: r})
	}
}
