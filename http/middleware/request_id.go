package middleware

import (
	"context"
	"net/http"

	restnest "github.com/harvard-lil/restnest"
	"github.com/google/uuid"
)

// RequestID adds a uuid to the request context under restnest.RequestIDKey.
func RequestID() Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), restnest.RequestIDKey, uuid.NewString())
			h.ServeHTTP(w, r.Clone(ctx))
		})
	}
}
