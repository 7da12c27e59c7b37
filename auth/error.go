package auth

import "errors"

var (
	ErrNotValid   = errors.New("invalid")
	ErrUnexpected = errors.New("unexpected")
)
