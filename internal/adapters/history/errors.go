package history

import "errors"

// ErrInvalidRound is returned for a round number below 1.
var ErrInvalidRound = errors.New("invalid round")
