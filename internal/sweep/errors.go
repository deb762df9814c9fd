package sweep

import (
	"errors"
	"fmt"
)

// UnknownKeyError is returned when a value is requested under a key that
// is not one of Keys.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("key %q is not a valid argument key", e.Key)
}

// InvalidStateError is returned when the enumerator cursor is at the
// terminal sentinel and an operation needs a current argument set.
type InvalidStateError struct {
	Op string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: sweep is exhausted (call Reset to rewind)", e.Op)
}

// IsUnknownKey reports whether err is (or wraps) an UnknownKeyError.
func IsUnknownKey(err error) bool {
	var uk *UnknownKeyError
	return errors.As(err, &uk)
}

// IsInvalidState reports whether err is (or wraps) an InvalidStateError.
func IsInvalidState(err error) bool {
	var is *InvalidStateError
	return errors.As(err, &is)
}
