package api

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("events endpoint not found")
	ErrRateLimited = errors.New("rate limited by gateway")
)

// FetchError is returned when a historical pull fails. It is always recoverable:
// the caller keeps whatever it already has and may retry later.
type FetchError struct {
	Since      uint64
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch events since %d: status %d: %v", e.Since, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch events since %d: %v", e.Since, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
