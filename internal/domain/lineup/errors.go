package lineup

import "errors"

var (
	// ErrUnknownPosition is returned for a position outside Positions.
	ErrUnknownPosition = errors.New("unknown position")
	// ErrPositionMismatch is returned when an athlete is saved under another position.
	ErrPositionMismatch = errors.New("athlete does not play this position")
)
