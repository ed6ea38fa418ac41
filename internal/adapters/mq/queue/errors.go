package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("notification queue full")
	ErrClosed = errors.New("notification queue closed")
)
