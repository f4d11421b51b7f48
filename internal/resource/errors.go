package resource

import "errors"

var (
	ErrUnknownKey    = errors.New("unknown resource key")
	ErrMalformedBody = errors.New("malformed resource body")
)
