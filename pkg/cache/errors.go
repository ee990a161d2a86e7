package cache

import "errors"

// ErrCorrupt is returned when a stored entry cannot be decoded.
// Backends delete corrupt entries before returning it.
var ErrCorrupt = errors.New("corrupt cache entry")
