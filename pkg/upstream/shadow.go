package upstream

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"umbra-hq/umbra/pkg/proxy"
	"umbra-hq/umbra/pkg/shadow"
)

// shadowDrainLimit caps how much of a shadow response body is read before
// the connection is released back to the pool.
const shadowDrainLimit = 1 << 20

// ShadowSender delivers cloned requests to their shadow target. It
// implements shadow.Deliverer. The response body is discarded; only the
// status code travels back in the outcome.
type ShadowSender struct {
	// client is the HTTP client with connection pooling
	client *http.Client

	logger *slog.Logger
}

// NewShadowSender creates a sender with its own connection pool, sized
// below the primary forwarder's so shadow traffic cannot crowd out live
// traffic at the socket level.
func NewShadowSender() *ShadowSender {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 16,
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

	return &ShadowSender{
		client: client,
		logger: slog.Default().With("component", "upstream.shadow"),
	}
}

// Deliver sends the clone to the target it was stamped with at admission
// time. The marker header identifies the request as mirrored traffic, and
// the forwarded-for chain is extended the same way the primary path does
// it. Transport errors return unwrapped so the engine can classify them
// against the attempt context.
func (s *ShadowSender) Deliver(ctx context.Context, task *shadow.Task) (int, error) {
	outReq, err := http.NewRequestWithContext(ctx, task.Method, joinTargetURL(task.Target, task.Path), bytes.NewReader(task.Body))
	if err != nil {
		return 0, err
	}

	CopyEndToEnd(outReq.Header, task.Header)
	AppendForwardedFor(outReq.Header, task.RemoteAddr)
	outReq.Header.Set(proxy.ShadowMarkerHeader, task.RequestID)
	outReq.ContentLength = int64(len(task.Body))

	resp, err := s.client.Do(outReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused; the payload itself is not
	// kept, shadow responses are never compared or stored.
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, shadowDrainLimit)); err != nil {
		s.logger.Debug("shadow response drain interrupted", "request_id", task.RequestID, "error", err)
	}

	return resp.StatusCode, nil
}
