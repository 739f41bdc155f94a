package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"umbra-hq/umbra/pkg/proxy"
)

func captureRequest(t *testing.T, method, path, body string) *proxy.Request {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	httpReq := httptest.NewRequest(method, path, reader)
	httpReq.RemoteAddr = "203.0.113.7:9999"

	req, err := proxy.Capture(httpReq, "req-test", 0)
	if err != nil {
		t.Fatalf("failed to capture request: %v", err)
	}
	return req
}

func TestForwarderPassThrough(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotBody   []byte
		gotHeader http.Header
	)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.RequestURI()
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Origin-Version", "1.4.2")
		w.WriteHeader(http.StatusCreated)
		// Write to response, ignore error
		_, _ = w.Write([]byte(`{"id":"widget-1"}`))
	}))
	defer origin.Close()

	fwd, err := NewForwarder(origin.URL)
	if err != nil {
		t.Fatalf("failed to create forwarder: %v", err)
	}

	req := captureRequest(t, http.MethodPost, "/v1/orders?dry_run=true", `{"sku":"widget"}`)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trace", "abc123")

	resp, err := fwd.Forward(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected forward error: %v", err)
	}
	defer resp.Close()

	if gotMethod != http.MethodPost {
		t.Errorf("origin saw method %q, want POST", gotMethod)
	}
	if gotPath != "/v1/orders?dry_run=true" {
		t.Errorf("origin saw path %q, want /v1/orders?dry_run=true", gotPath)
	}
	if string(gotBody) != `{"sku":"widget"}` {
		t.Errorf("origin saw body %q", string(gotBody))
	}
	if gotHeader.Get("X-Trace") != "abc123" {
		t.Errorf("origin saw X-Trace %q, want abc123", gotHeader.Get("X-Trace"))
	}

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected status 201, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Origin-Version") != "1.4.2" {
		t.Errorf("expected origin response headers to pass through, got %v", resp.Header)
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	if string(respBody) != `{"id":"widget-1"}` {
		t.Errorf("expected response body to pass through, got %q", string(respBody))
	}
}

func TestForwarderPreservesErrorStatus(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer origin.Close()

	fwd, err := NewForwarder(origin.URL)
	if err != nil {
		t.Fatalf("failed to create forwarder: %v", err)
	}

	resp, err := fwd.Forward(context.Background(), captureRequest(t, http.MethodGet, "/missing", ""))
	if err != nil {
		t.Fatalf("non-2xx origin status must not be a forward error, got %v", err)
	}
	defer resp.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestForwarderStripsHopByHopHeaders(t *testing.T) {
	var gotHeader http.Header
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer origin.Close()

	fwd, err := NewForwarder(origin.URL)
	if err != nil {
		t.Fatalf("failed to create forwarder: %v", err)
	}

	req := captureRequest(t, http.MethodGet, "/ping", "")
	req.Header.Set("Connection", "keep-alive, X-Dynamic")
	req.Header.Set("Keep-Alive", "timeout=5")
	req.Header.Set("X-Dynamic", "per-connection")
	req.Header.Set("X-Static", "survives")

	resp, err := fwd.Forward(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected forward error: %v", err)
	}
	resp.Close()

	if gotHeader.Get("Keep-Alive") != "" {
		t.Error("expected Keep-Alive to be stripped")
	}
	if gotHeader.Get("X-Dynamic") != "" {
		t.Error("expected Connection-named X-Dynamic to be stripped")
	}
	if gotHeader.Get("X-Static") != "survives" {
		t.Errorf("expected X-Static to survive, got %q", gotHeader.Get("X-Static"))
	}
}

func TestForwarderAppendsForwardedFor(t *testing.T) {
	var gotXFF string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotXFF = r.Header.Get("X-Forwarded-For")
		w.WriteHeader(http.StatusOK)
	}))
	defer origin.Close()

	fwd, err := NewForwarder(origin.URL)
	if err != nil {
		t.Fatalf("failed to create forwarder: %v", err)
	}

	req := captureRequest(t, http.MethodGet, "/ping", "")
	req.Header.Set("X-Forwarded-For", "198.51.100.1")

	resp, err := fwd.Forward(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected forward error: %v", err)
	}
	resp.Close()

	if gotXFF != "198.51.100.1, 203.0.113.7" {
		t.Errorf("expected forwarded chain to be extended, got %q", gotXFF)
	}

	// The captured snapshot must not be mutated by forwarding.
	if got := req.Header.Get("X-Forwarded-For"); got != "198.51.100.1" {
		t.Errorf("expected snapshot header to stay %q, got %q", "198.51.100.1", got)
	}
}

func TestForwarderDoesNotFollowRedirects(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://elsewhere.test/moved", http.StatusFound)
	}))
	defer origin.Close()

	fwd, err := NewForwarder(origin.URL)
	if err != nil {
		t.Fatalf("failed to create forwarder: %v", err)
	}

	resp, err := fwd.Forward(context.Background(), captureRequest(t, http.MethodGet, "/old", ""))
	if err != nil {
		t.Fatalf("unexpected forward error: %v", err)
	}
	defer resp.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected 302 to pass through unfollowed, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Location") != "http://elsewhere.test/moved" {
		t.Errorf("expected Location header to pass through, got %q", resp.Header.Get("Location"))
	}
}

func TestForwarderUnreachableOrigin(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	originURL := origin.URL
	origin.Close()

	fwd, err := NewForwarder(originURL)
	if err != nil {
		t.Fatalf("failed to create forwarder: %v", err)
	}

	resp, err := fwd.Forward(context.Background(), captureRequest(t, http.MethodGet, "/ping", ""))
	if err == nil {
		resp.Close()
		t.Fatal("expected an error forwarding to a closed origin")
	}

	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *upstream.Error, got %T", err)
	}
	if upErr.Reason != ReasonUnreachable {
		t.Errorf("expected reason %q, got %q", ReasonUnreachable, upErr.Reason)
	}
	if upErr.IsTimeout() {
		t.Error("connection refusal must not classify as a timeout")
	}
}

func TestForwarderTimeout(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer origin.Close()

	fwd, err := NewForwarder(origin.URL)
	if err != nil {
		t.Fatalf("failed to create forwarder: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	resp, err := fwd.Forward(ctx, captureRequest(t, http.MethodGet, "/slow", ""))
	if err == nil {
		resp.Close()
		t.Fatal("expected a timeout error")
	}

	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *upstream.Error, got %T", err)
	}
	if upErr.Reason != ReasonTimeout {
		t.Errorf("expected reason %q, got %q", ReasonTimeout, upErr.Reason)
	}
	if !upErr.IsTimeout() {
		t.Error("expected IsTimeout to report true")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected the deadline error to remain unwrappable")
	}
}

func TestNewForwarderValidation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "valid http", baseURL: "http://origin.test:8080", wantErr: false},
		{name: "valid https", baseURL: "https://origin.test", wantErr: false},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "missing scheme", baseURL: "origin.test:8080", wantErr: true},
		{name: "unsupported scheme", baseURL: "ftp://origin.test", wantErr: true},
		{name: "missing host", baseURL: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewForwarder(tt.baseURL)
			if tt.wantErr && err == nil {
				t.Errorf("expected an error for base URL %q", tt.baseURL)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for base URL %q: %v", tt.baseURL, err)
			}
		})
	}
}
