package cache

import (
	"errors"
	"fmt"
)

// ErrLoaderFailed is returned to every caller attached to a failed hydration.
var ErrLoaderFailed = errors.New("cache loader failed")

// LoaderError carries the key and cause of a failed hydration.
// All waiters of one hydration receive the same *LoaderError.
type LoaderError struct {
	Key string
	Err error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("%s: key %q: %v", ErrLoaderFailed, e.Key, e.Err)
}

// Unwrap exposes both ErrLoaderFailed and the underlying cause to errors.Is.
func (e *LoaderError) Unwrap() []error {
	return []error{ErrLoaderFailed, e.Err}
}
