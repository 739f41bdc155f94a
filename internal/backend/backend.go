// Package backend provides HTTP test doubles for the proxy's origin and
// shadow targets. A RecordingBackend captures every request it receives so
// tests can assert what reached each path, and serves scriptable responses
// including delays and failures.
package backend

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// RecordingBackend is an HTTP server double that records incoming requests
// and serves configured responses. It stands in for both the origin and the
// shadow target in tests.
type RecordingBackend struct {
	server    *httptest.Server
	mu        sync.Mutex
	responses map[string]Response
	fallback  Response
	requests  []RecordedRequest
}

// Response defines a scripted response for a path.
type Response struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string
}

// RecordedRequest is the capture of one request received by the backend.
type RecordedRequest struct {
	Method     string
	Path       string
	Header     http.Header
	Body       []byte
	ReceivedAt time.Time
}

// New creates a started RecordingBackend. Paths without a scripted response
// answer 200 with an empty body; use SetFallback to change that.
func New() *RecordingBackend {
	rb := &RecordingBackend{
		responses: make(map[string]Response),
		fallback:  Response{StatusCode: http.StatusOK},
	}

	rb.server = httptest.NewServer(http.HandlerFunc(rb.handler))

	return rb
}

// URL returns the backend's base URL.
func (rb *RecordingBackend) URL() string {
	return rb.server.URL
}

// Close shuts the backend down.
func (rb *RecordingBackend) Close() {
	rb.server.Close()
}

// SetResponse scripts the response for a specific path.
func (rb *RecordingBackend) SetResponse(path string, response Response) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.responses[path] = response
}

// SetFallback scripts the response for paths without a specific script.
func (rb *RecordingBackend) SetFallback(response Response) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.fallback = response
}

// RequestCount returns the number of requests received so far.
func (rb *RecordingBackend) RequestCount() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return len(rb.requests)
}

// Requests returns a copy of every recorded request in arrival order.
func (rb *RecordingBackend) Requests() []RecordedRequest {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]RecordedRequest, len(rb.requests))
	copy(out, rb.requests)
	return out
}

// Reset discards all recorded requests.
func (rb *RecordingBackend) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.requests = nil
}

// WaitForRequests blocks until at least n requests have been recorded or the
// timeout elapses. It reports whether the count was reached, which lets tests
// synchronize with asynchronous shadow deliveries without fixed sleeps.
func (rb *RecordingBackend) WaitForRequests(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if rb.RequestCount() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// handler records the request, then serves the scripted response.
func (rb *RecordingBackend) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	record := RecordedRequest{
		Method:     r.Method,
		Path:       r.URL.Path,
		Header:     r.Header.Clone(),
		Body:       body,
		ReceivedAt: time.Now(),
	}
	if r.URL.RawQuery != "" {
		record.Path += "?" + r.URL.RawQuery
	}

	rb.mu.Lock()
	rb.requests = append(rb.requests, record)
	response, ok := rb.responses[r.URL.Path]
	if !ok {
		response = rb.fallback
	}
	rb.mu.Unlock()

	// Apply delay if specified
	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	// Set headers
	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	statusCode := response.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)

	// Write response body
	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v)) // Write to response, ignore error
		case []byte:
			_, _ = w.Write(v) // Write to response, ignore error
		default:
			_ = json.NewEncoder(w).Encode(response.Body) // Write to response, ignore error
		}
	}
}
