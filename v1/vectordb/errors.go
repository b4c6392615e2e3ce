package vectordb

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks caller mistakes that are reported synchronously,
// before any network call: empty namespace lists, a missing metric, a request
// carrying both a vector and an ID, and the like.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentf formats a message and wraps ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
