package syncs

import "errors"

// ErrInvalidRule indicates a [Rule] that requires a non-positive number of
// units of some kind.
var ErrInvalidRule = errors.New("invalid rule")
