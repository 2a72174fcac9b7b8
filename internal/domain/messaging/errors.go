package messaging

import "errors"

var (
	ErrNotExternal      = errors.New("value does not carry a native port handle")
	ErrMalformedMessage = errors.New("malformed message")
	ErrMissingReference = errors.New("managed reference not parked on port")
)
