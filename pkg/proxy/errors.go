package proxy

import "fmt"

// BodyTooLargeError indicates that an inbound request body exceeded the
// configured capture limit. Requests that trip the limit are rejected with
// 413 before either forwarding path runs.
type BodyTooLargeError struct {
	// Limit is the maximum number of body bytes accepted.
	Limit int64
}

// Error implements the error interface.
func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("request body exceeds maximum size of %d bytes", e.Limit)
}
