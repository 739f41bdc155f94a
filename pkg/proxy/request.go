package proxy

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultMaxBodyBytes is the maximum request body size buffered for
	// cloning when no limit is configured (10MB).
	DefaultMaxBodyBytes = 10 * 1024 * 1024

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"

	// ShadowMarkerHeader carries the request ID on cloned requests so the
	// shadow backend can tell mirrored traffic from live traffic.
	ShadowMarkerHeader = "X-Umbra-Shadow"

	// ForwardedForHeader accumulates the client address chain on both
	// forwarding paths.
	ForwardedForHeader = "X-Forwarded-For"
)

// Request is an immutable snapshot of an inbound HTTP request. It is captured
// exactly once per accepted call and shared by the primary forward and the
// shadow clone, so none of its fields may be mutated after capture.
type Request struct {
	// ID correlates the exchange across logs, metrics and shadow outcomes.
	ID string

	// Method is the HTTP method of the original request.
	Method string

	// Path is the URL path of the original request, including the raw query
	// when one was present.
	Path string

	// Header holds the captured request headers. Keys are canonicalized and
	// duplicate values are preserved in arrival order.
	Header http.Header

	// Body is the fully buffered request body. It may be empty.
	Body []byte

	// RemoteAddr is the network address of the requesting client.
	RemoteAddr string

	// ReceivedAt marks the instant the request was accepted.
	ReceivedAt time.Time
}

// Capture buffers an inbound HTTP request into an immutable Request
// identified by id. The body is read in full so it can be replayed on both
// paths; bodies larger than maxBodyBytes are rejected with a
// BodyTooLargeError before either path runs.
//
// Example usage:
//
//	req, err := proxy.Capture(r, requestID, proxy.DefaultMaxBodyBytes)
//	if err != nil {
//	    // Reject the request, nothing has been forwarded yet.
//	    return err
//	}
func Capture(r *http.Request, id string, maxBodyBytes int64) (*Request, error) {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	body, err := readBody(r.Body, maxBodyBytes)
	if err != nil {
		return nil, err
	}

	return &Request{
		ID:         id,
		Method:     r.Method,
		Path:       requestPath(r),
		Header:     cloneHeader(r.Header),
		Body:       body,
		RemoteAddr: r.RemoteAddr,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// CloneHeader returns a deep copy of the captured headers. Mutating the copy
// never affects the snapshot shared with the primary path.
func (r *Request) CloneHeader() http.Header {
	return cloneHeader(r.Header)
}

// CloneBody returns a copy of the captured body bytes, or nil when the body
// is empty.
func (r *Request) CloneBody() []byte {
	if len(r.Body) == 0 {
		return nil
	}
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	return body
}

// readBody buffers the request body while enforcing the size limit. It reads
// one byte past the limit so a body of exactly limit bytes is accepted and a
// larger one is detected without buffering all of it.
func readBody(rc io.ReadCloser, limit int64) ([]byte, error) {
	if rc == nil {
		return nil, nil
	}
	defer rc.Close()

	limitedReader := io.LimitReader(rc, limit+1)

	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	if int64(len(body)) > limit {
		return nil, &BodyTooLargeError{Limit: limit}
	}
	if len(body) == 0 {
		return nil, nil
	}

	return body, nil
}

// requestPath reconstructs the path plus raw query of the original request.
func requestPath(r *http.Request) string {
	path := r.URL.Path
	if path == "" {
		path = "/"
	}
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	return path
}

// cloneHeader deep-copies a header map including duplicate values.
func cloneHeader(h http.Header) http.Header {
	clone := make(http.Header, len(h))
	for name, values := range h {
		copied := make([]string, len(values))
		copy(copied, values)
		clone[name] = copied
	}
	return clone
}
