package resp_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harvard-lil/restnest/http/resp"
	"github.com/harvard-lil/restnest/logger"
	"github.com/stretchr/testify/require"
)

func quietResponder() *resp.Responder {
	l := logger.New(logger.WithLogger(log.New(new(bytes.Buffer), "", 0)))
	return resp.NewResponder(resp.WithLogger(l))
}

func TestJson(t *testing.T) {
	// Arrange
	d := quietResponder()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	// Act
	err := d.Json(w, r, http.StatusOK, map[string]any{"title": "hi"})

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json; charset=UTF-8", w.Header().Get("Content-Type"))

	var body map[string]any
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "hi", body["title"])
}

func TestJsonEncodeFailure(t *testing.T) {
	// Arrange
	d := quietResponder()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	// Act: channels cannot marshal
	err := d.Json(w, r, http.StatusOK, make(chan int))

	// Assert
	require.NotNil(t, err)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestErrorShapes(t *testing.T) {
	d := quietResponder()

	for name, tc := range map[string]struct {
		code int
		call func(w http.ResponseWriter, r *http.Request)
	}{
		"bad request":        {http.StatusBadRequest, func(w http.ResponseWriter, r *http.Request) { d.BadRequest(w, r, "nope") }},
		"unauthorized":       {http.StatusUnauthorized, func(w http.ResponseWriter, r *http.Request) { d.Unauthorized(w, r, "") }},
		"not found":          {http.StatusNotFound, func(w http.ResponseWriter, r *http.Request) { d.NotFound(w, r, "gone") }},
		"multiple choices":   {http.StatusMultipleChoices, func(w http.ResponseWriter, r *http.Request) { d.MultipleChoices(w, r, "many") }},
		"too many requests":  {http.StatusTooManyRequests, func(w http.ResponseWriter, r *http.Request) { d.TooManyRequests(w, r) }},
		"not implemented":    {http.StatusNotImplemented, func(w http.ResponseWriter, r *http.Request) { d.NotImplemented(w, r, "cannot") }},
		"method not allowed": {http.StatusMethodNotAllowed, func(w http.ResponseWriter, r *http.Request) { d.MethodNotAllowed(w, r, []string{"GET"}) }},
	} {
		// Arrange
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

		// Act
		tc.call(w, r)

		// Assert
		require.Equal(t, tc.code, w.Code, name)

		var body map[string]string
		require.Nil(t, json.Unmarshal(w.Body.Bytes(), &body), name)
		require.NotEmpty(t, body["error"], name)
	}
}

func TestErr(t *testing.T) {
	// Arrange
	d := quietResponder()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	// Act
	d.Err(w, r, errors.New("boom"))

	// Assert
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "boom")
}
