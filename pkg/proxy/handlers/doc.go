// Package handlers provides HTTP request handlers for the proxy server.
//
// This package implements the endpoint handlers for shadow dispatch and
// health probes. The dispatch handler owns the two-path flow; the health
// handlers serve Kubernetes-style probes.
//
// # Handler Types
//
// Traffic handler:
//   - DispatchHandler: captures the request, enqueues the shadow clone,
//     forwards on the primary path, and relays the origin's response
//
// Health check handlers:
//   - HealthHandler: liveness probe (always returns 200)
//   - ReadyHandler: readiness probe (checks shadow engine state)
//
// # Request Flow
//
// The dispatch handler follows a fixed sequence:
//
//  1. Read request ID from context (set by middleware)
//  2. Snapshot method, path, headers, and body via proxy.Capture
//  3. Submit the clone to the shadow engine (non-blocking)
//  4. Forward the snapshot to the origin under the origin timeout
//  5. Relay the origin's status, headers, and body to the client
//
// A rejected shadow submission never changes steps 4 and 5. The client's
// response depends only on the origin.
//
// # Error Handling
//
// Only primary-path failures produce error responses:
//
//	{
//	  "error": "origin request timed out",
//	  "request_id": "a1b2c3d4e5f6"
//	}
//
// Origin timeouts map to 504 Gateway Timeout; connection failures and
// malformed responses map to 502 Bad Gateway. Oversized request bodies are
// refused with 413 before either path runs.
//
// # Health Checks
//
// The probe endpoints are designed for Kubernetes liveness/readiness:
//
//	livenessProbe:
//	  httpGet:
//	    path: /healthz
//	    port: 8080
//	  initialDelaySeconds: 10
//	  periodSeconds: 30
//
//	readinessProbe:
//	  httpGet:
//	    path: /readyz
//	    port: 8080
//	  initialDelaySeconds: 5
//	  periodSeconds: 10
//
// Readiness reports 503 while the shadow engine is starting or draining so
// load balancers drain traffic ahead of shutdown.
package handlers
