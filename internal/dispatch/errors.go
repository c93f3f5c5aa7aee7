package dispatch

import (
	"errors"
	"fmt"
)

// ErrRateLimited indicates the backend signaled quota exhaustion
// (a 429-flavored failure). Generator implementations wrap their
// provider-specific error with this sentinel.
var ErrRateLimited = errors.New("backend rate limited")

// RetriesExhaustedError is the terminal failure returned after every
// retry attempt has failed. It unwraps to the last underlying cause so
// callers can still distinguish rate limiting from other failures.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("backend call failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}
