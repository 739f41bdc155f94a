package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Response carries the primary upstream's reply back to the coordinator. The
// body is streamed rather than buffered, so the holder must close it exactly
// once.
type Response struct {
	// StatusCode is the HTTP status returned by the upstream.
	StatusCode int

	// Header holds the upstream response headers.
	Header http.Header

	// Body streams the upstream response payload.
	Body io.ReadCloser
}

// Close releases the response body. It is safe to call on a response with a
// nil body.
func (r *Response) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// WriteJSONResponse writes a JSON response to the HTTP response writer.
// It sets the appropriate content-type header and handles encoding errors.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteErrorResponse writes a gateway-style JSON error body. The request ID
// is included so callers can correlate the failure with server logs.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) error {
	return WriteJSONResponse(w, statusCode, map[string]interface{}{
		"error":      message,
		"request_id": requestID,
	})
}
