package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnavailable  = errors.New("market data unavailable")
	ErrNotStarted   = errors.New("service not started")
	ErrNotFound     = errors.New("athlete not found")
	ErrUnknownBoard = errors.New("unknown ranking board")
)
