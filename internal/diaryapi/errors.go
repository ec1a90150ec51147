package diaryapi

import (
	"errors"
	"fmt"
)

var (
	// ErrDataFormat means a response body did not have the expected shape.
	ErrDataFormat = errors.New("unexpected response format")
	// ErrUnauthorized means the session is missing or the password was rejected.
	ErrUnauthorized = errors.New("not authorized")
)

// NetworkError reports a failed request: a transport error or a non-2xx status.
type NetworkError struct {
	Op     string // e.g. "GET /years"
	Status int    // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
