package auth

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
)

// JWT authenticates requests bearing a signed token in the Authorization header.
//
// Claims constructs the claims value each parse hydrates;
// when nil, jwt.MapClaims is used.
type JWT struct {
	Key    any
	Claims func() jwt.Claims

	parser jwt.Parser
}

// NewJWT constructs a JWT Authenticator verifying tokens against key.
func NewJWT(key any) *JWT {
	return &JWT{Key: key}
}

func (j *JWT) Authenticate(r *http.Request) error {
	reqToken := bearerToken(r)
	if reqToken == "" {
		reqToken = r.URL.Query().Get("jwt")
	}

	if reqToken == "" {
		return fmt.Errorf("%w: no token presented", ErrNotValid)
	}

	claims := jwt.Claims(jwt.MapClaims{})
	if j.Claims != nil {
		claims = j.Claims()
	}

	_, err := j.parser.ParseWithClaims(reqToken, claims, func(token *jwt.Token) (any, error) {
		return j.Key, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotValid, err)
	}

	return nil
}
