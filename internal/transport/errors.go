package transport

import (
	"errors"
	"fmt"
)

// ErrUnexpectedStatus matches any *StatusError via errors.Is
var ErrUnexpectedStatus = errors.New("unexpected status")

// ErrBodyTooLarge is returned when a response exceeds http.max_body_bytes
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError reports a non-2xx response
type StatusError struct {
	URL        string
	StatusCode int
	Status     string // Status text, e.g. "Not Found"
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, e.Status)
}

// Is implements errors.Is support
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// StatusCode returns the HTTP status carried by err, or 0 when the request
// never produced a response
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
