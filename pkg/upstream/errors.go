package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Reason classifies why an exchange with an upstream failed.
type Reason string

const (
	// ReasonUnreachable means the connection could not be established or
	// broke at the transport level.
	ReasonUnreachable Reason = "unreachable"

	// ReasonTimeout means the exchange exceeded its deadline.
	ReasonTimeout Reason = "timeout"

	// ReasonMalformed means the upstream answered with something that is
	// not a valid HTTP response.
	ReasonMalformed Reason = "malformed_response"
)

// Error describes a failed exchange with an upstream. The coordinator maps
// it to a gateway-style response on the primary path; on the shadow path it
// only feeds outcome classification.
type Error struct {
	// Target is the base URL of the upstream that failed.
	Target string

	// Reason classifies the failure.
	Reason Reason

	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("upstream %s %s: %v", e.Target, e.Reason, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the failure was a deadline expiry.
func (e *Error) IsTimeout() bool {
	return e.Reason == ReasonTimeout
}

// classifyTransportError maps an http.Client error to a failure reason.
// Deadline expiry and transport-level timeouts classify as timeout, socket
// and dial failures as unreachable, and whatever remains came from a reply
// the HTTP client could not parse.
func classifyTransportError(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ReasonUnreachable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ReasonUnreachable
	}

	return ReasonMalformed
}
