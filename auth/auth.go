package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// An Authenticator decides whether a request carries acceptable credentials.
//
// Resources call their Authenticator before dispatching an operation;
// a non-nil error turns into a 401.
type Authenticator interface {
	Authenticate(r *http.Request) error
}

// Noop accepts every request.
type Noop struct{}

func (Noop) Authenticate(*http.Request) error { return nil }

// APIKey authenticates requests bearing a key in the named header,
// falling back to the "api_key" query param.
// Valid decides whether the presented key is acceptable.
type APIKey struct {
	Header string
	Valid  func(key string) bool
}

func (a APIKey) Authenticate(r *http.Request) error {
	header := a.Header
	if header == "" {
		header = "X-Api-Key"
	}

	key := r.Header.Get(header)
	if key == "" {
		key = r.URL.Query().Get("api_key")
	}

	if key == "" {
		return fmt.Errorf("%w: no api key presented", ErrNotValid)
	}

	if a.Valid == nil || !a.Valid(key) {
		return fmt.Errorf("%w: api key rejected", ErrNotValid)
	}

	return nil
}

// bearerToken pulls the token out of an Authorization header.
func bearerToken(r *http.Request) string {
	val := r.Header.Get("Authorization")
	if val == "" {
		return ""
	}

	parts := strings.SplitN(val, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}
