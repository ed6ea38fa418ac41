package scoring

import "errors"

// ErrInvalidSelection is returned when a projection is requested for no athletes.
var ErrInvalidSelection = errors.New("invalid selection: no athletes")
