package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"umbra-hq/umbra/pkg/proxy"
	"umbra-hq/umbra/pkg/proxy/middleware"
	"umbra-hq/umbra/pkg/upstream"
)

const (
	// DefaultOriginTimeout bounds the whole primary exchange, from dialing
	// the origin through relaying the last response byte.
	DefaultOriginTimeout = 30 * time.Second
)

// DispatchHandler is the proxy's main traffic handler. It accepts each
// request exactly once, snapshots it, hands the clone to the shadow engine,
// and forwards the original to the origin on the primary path. The client
// only ever sees the origin's response; shadow delivery succeeds or fails
// out of band.
type DispatchHandler struct {
	forwarder     PrimaryForwarder
	submitter     ShadowSubmitter
	originTimeout time.Duration
	maxBodyBytes  int64
}

// NewDispatchHandler creates the main traffic handler. Zero values for
// originTimeout and maxBodyBytes select DefaultOriginTimeout and
// proxy.DefaultMaxBodyBytes.
func NewDispatchHandler(forwarder PrimaryForwarder, submitter ShadowSubmitter, originTimeout time.Duration, maxBodyBytes int64) *DispatchHandler {
	if originTimeout <= 0 {
		originTimeout = DefaultOriginTimeout
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = proxy.DefaultMaxBodyBytes
	}
	return &DispatchHandler{
		forwarder:     forwarder,
		submitter:     submitter,
		originTimeout: originTimeout,
		maxBodyBytes:  maxBodyBytes,
	}
}

// ServeHTTP implements http.Handler.
func (h *DispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handleDispatch(w, r, h)
}

// handleDispatch runs the two-path flow for a single request.
func handleDispatch(w http.ResponseWriter, r *http.Request, h *DispatchHandler) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	startTime := time.Now()

	// Snapshot the request once. Both paths work from this copy; the raw
	// body is consumed here and never read again.
	req, err := proxy.Capture(r, requestID, h.maxBodyBytes)
	if err != nil {
		var tooLarge *proxy.BodyTooLargeError
		if errors.As(err, &tooLarge) {
			slog.WarnContext(ctx, "request body exceeds capture limit",
				"request_id", requestID,
				"limit_bytes", tooLarge.Limit,
			)
			_ = proxy.WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "request body too large", requestID)
			return
		}

		slog.ErrorContext(ctx, "failed to read request body",
			"request_id", requestID,
			"error", err,
		)
		_ = proxy.WriteErrorResponse(w, http.StatusBadRequest, "malformed request body", requestID)
		return
	}

	// Enqueue the shadow clone before the primary call so queue admission
	// follows arrival order, not origin latency. A refusal is recorded by
	// the engine's observer; the client is never told.
	if !h.submitter.Submit(req) {
		slog.DebugContext(ctx, "shadow queue refused request",
			"request_id", requestID,
			"method", req.Method,
			"path", req.Path,
		)
	}

	// Primary path. The timeout covers the full exchange including the
	// response body relay.
	originCtx, cancel := context.WithTimeout(ctx, h.originTimeout)
	defer cancel()

	originStart := time.Now()
	resp, err := h.forwarder.Forward(originCtx, req)
	if err != nil {
		writeOriginError(w, r, requestID, err)
		return
	}
	defer resp.Close()

	// Relay the origin's answer untouched: status, end-to-end headers, body.
	upstream.CopyEndToEnd(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		slog.WarnContext(ctx, "response relay interrupted",
			"request_id", requestID,
			"bytes_written", written,
			"error", err,
		)
		return
	}

	slog.InfoContext(ctx, "request proxied",
		"request_id", requestID,
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"bytes", written,
		"origin_latency_ms", time.Since(originStart).Milliseconds(),
		"total_latency_ms", time.Since(startTime).Milliseconds(),
	)
}

// writeOriginError maps a failed primary exchange to a gateway error.
// Timeouts become 504, everything else 502. Shadow outcomes never reach
// this path.
func writeOriginError(w http.ResponseWriter, r *http.Request, requestID string, err error) {
	ctx := r.Context()

	// If the client is already gone there is nobody left to answer.
	if ctx.Err() != nil {
		slog.WarnContext(ctx, "client disconnected before origin response",
			"request_id", requestID,
			"error", err,
		)
		return
	}

	status := http.StatusBadGateway
	message := "origin request failed"

	var upErr *upstream.Error
	if errors.As(err, &upErr) && upErr.IsTimeout() {
		status = http.StatusGatewayTimeout
		message = "origin request timed out"
	}

	slog.ErrorContext(ctx, "origin request failed",
		"request_id", requestID,
		"status", status,
		"error", err,
	)
	_ = proxy.WriteErrorResponse(w, status, message, requestID)
}
