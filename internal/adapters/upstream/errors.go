package upstream

import "errors"

// Sentinel kinds for upstream errors.
var (
	// ErrFetchFailure is terminal for the cycle: retries are exhausted or the
	// response cannot be used.
	ErrFetchFailure = errors.New("fetch failure")
	// errTransient marks failures worth retrying.
	errTransient = errors.New("transient upstream failure")
)
