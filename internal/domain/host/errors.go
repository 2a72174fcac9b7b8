package host

import "errors"

var (
	ErrUnknownHandle = errors.New("unknown port handle")
	ErrPortClosed    = errors.New("port is closed")
	ErrQueueFull     = errors.New("port queue is full")
)
