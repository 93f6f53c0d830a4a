package behavior

import "errors"

// ErrPanic wraps a panic recovered from a handler or inner behavior.
var ErrPanic = errors.New("request handler panicked")
