package restnest

import "errors"

var (
	ErrBadConfig       = errors.New("bad config")
	ErrMissingData     = errors.New("missing data")
	ErrMultipleMatches = errors.New("multiple matches")
	ErrNotExist        = errors.New("not exist")
	ErrNotFound        = errors.New("not found")
	ErrNotImplemented  = errors.New("not implemented")
	ErrNotValid        = errors.New("invalid")
	ErrUnexpected      = errors.New("unexpected")
)
