package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	restnest "github.com/harvard-lil/restnest"
	"github.com/harvard-lil/restnest/http/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func teapotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}
}

func TestChain(t *testing.T) {
	// Arrange
	var order []string
	tag := func(name string) middleware.Adapter {
		return func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				h.ServeHTTP(w, r)
			})
		}
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	// Act
	middleware.Chain(teapotHandler(), tag("first"), tag("second")).ServeHTTP(w, r)

	// Assert
	require.Equal(t, []string{"first", "second"}, order)
	require.Equal(t, http.StatusTeapot, w.Code)
}

func TestRequestID(t *testing.T) {
	// Arrange
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = r.Context().Value(restnest.RequestIDKey).(string)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	// Act
	middleware.RequestID()(next).ServeHTTP(w, r)

	// Assert
	_, err := uuid.Parse(got)
	require.Nil(t, err)
}

func TestGetIPAddress(t *testing.T) {
	// Arrange
	header := http.Header{}
	header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	// Act + Assert
	require.Equal(t, "203.0.113.7", middleware.GetIPAddress(header))

	// Arrange
	header = http.Header{}
	header.Set("X-Real-Ip", "192.168.1.10")

	// Act + Assert
	require.Equal(t, "0.0.0.0", middleware.GetIPAddress(header))
}

func TestRateLimit(t *testing.T) {
	// Arrange
	visitors := middleware.NewVisitors()
	handler := middleware.RateLimit(visitors)(teapotHandler())
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("X-Real-Ip", "203.0.113.9")

	// Act: exhaust the burst of 20, then one more.
	var last int
	for i := 0; i < 21; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		last = w.Code
	}

	// Assert
	require.Equal(t, http.StatusTooManyRequests, last)
}
