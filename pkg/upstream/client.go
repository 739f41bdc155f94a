// Package upstream implements the HTTP clients behind both forwarding
// paths: the Forwarder carrying live traffic to the origin, and the
// ShadowSender delivering clones to the shadow target. Both ride pooled
// transports; neither follows redirects, a proxy passes 3xx through.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"umbra-hq/umbra/pkg/proxy"
)

// Forwarder sends captured requests to the configured origin and returns
// the origin's response for pass-through. It never retries: retry policy on
// the primary path belongs to the caller, not the proxy.
type Forwarder struct {
	// baseURL is the origin base URL every request is joined against.
	baseURL string

	// client is the HTTP client with connection pooling
	client *http.Client

	logger *slog.Logger
}

// NewForwarder creates a forwarder bound to the origin base URL. The URL
// must be absolute with an http or https scheme.
func NewForwarder(baseURL string) (*Forwarder, error) {
	if err := validateBaseURL(baseURL); err != nil {
		return nil, err
	}

	// Create HTTP transport with connection pooling. Compression is
	// disabled so upstream bodies pass through byte for byte.
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
		// Enable HTTP/2
		ForceAttemptHTTP2: true,
	}

	client := &http.Client{
		Transport: transport,
		// Redirects are passed through to the caller, never followed.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Forwarder{
		baseURL: baseURL,
		client:  client,
		logger:  slog.Default().With("component", "upstream.forwarder"),
	}, nil
}

// BaseURL returns the origin base URL.
func (f *Forwarder) BaseURL() string {
	return f.baseURL
}

// Forward transmits req to the origin and returns its response with a
// streaming body. The deadline on ctx bounds the whole exchange; the caller
// owns closing the response body. Failures come back as *Error with the
// reason classified for gateway mapping.
func (f *Forwarder) Forward(ctx context.Context, req *proxy.Request) (*proxy.Response, error) {
	outReq, err := http.NewRequestWithContext(ctx, req.Method, joinTargetURL(f.baseURL, req.Path), bytes.NewReader(req.Body))
	if err != nil {
		return nil, &Error{Target: f.baseURL, Reason: ReasonMalformed, Err: fmt.Errorf("building origin request: %w", err)}
	}

	CopyEndToEnd(outReq.Header, req.Header)
	AppendForwardedFor(outReq.Header, req.RemoteAddr)
	outReq.ContentLength = int64(len(req.Body))

	resp, err := f.client.Do(outReq)
	if err != nil {
		reason := classifyTransportError(err)
		f.logger.Debug("origin exchange failed", "reason", string(reason), "error", err)
		return nil, &Error{Target: f.baseURL, Reason: reason, Err: err}
	}

	return &proxy.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// validateBaseURL checks that raw is an absolute http or https URL.
func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("upstream: base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("upstream: invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("upstream: base URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("upstream: base URL %q has no host", raw)
	}
	return nil
}
