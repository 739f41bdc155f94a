// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// This package implements middleware functions that handle common
// functionality across all HTTP requests including request ID generation,
// logging, and panic recovery.
//
// # Middleware Chain
//
// Middleware functions are chained in a specific order:
//
//	handler = Recovery(Logging(RequestID(handler)))
//
// Order (innermost to outermost):
//  1. RequestID: Generate and propagate request ID
//  2. Logging: Log request/response details
//  3. Recovery: Recover from panics
//
// Recovery sits outermost so a panic anywhere below it, logging included,
// still produces a well-formed 500.
//
// # Request ID
//
// RequestIDMiddleware assigns a unique ID to each request:
//
//	X-Request-ID: a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6
//
// The request ID is:
//   - Added to context for handler access
//   - Included in response headers
//   - Logged with all request/response logs
//   - Carried on the shadow copy's marker header for correlation
//
// Clients may supply their own X-Request-ID; it is reused unchanged.
//
// # Logging
//
// LoggingMiddleware uses structured logging (log/slog) to record request
// details:
//
//	{
//	  "time": "2026-08-25T10:30:00Z",
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "POST",
//	  "path": "/v1/orders",
//	  "status": 200,
//	  "latency_ms": 42,
//	  "request_id": "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"
//	}
//
// Responses with status >= 500 log at error level and >= 400 at warn level.
//
// # Recovery
//
// RecoveryMiddleware catches panics in handlers and converts them to HTTP
// 500 errors:
//
//	{
//	  "error": "internal server error",
//	  "request_id": "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"
//	}
//
// The panic stack trace is logged but not exposed to clients.
//
// # Context Values
//
// Middleware stores values in context for handler access:
//
//	type contextKey string
//
//	const (
//	    RequestIDKey contextKey = "request_id"
//	    StartTimeKey contextKey = "start_time"
//	)
//
// Handlers retrieve them through the accessors:
//
//	requestID := middleware.GetRequestID(r.Context())
//
// # Thread Safety
//
// All middleware functions are thread-safe and can be called concurrently
// from multiple goroutines.
package middleware
