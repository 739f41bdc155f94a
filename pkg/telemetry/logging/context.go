package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// TargetKey is the context key for the shadow target a delivery
	// attempt is addressed to.
	TargetKey contextKey = "shadow_target"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithTarget adds a shadow target to the context.
func WithTarget(ctx context.Context, target string) context.Context {
	return context.WithValue(ctx, TargetKey, target)
}

// GetTarget retrieves the shadow target from the context.
func GetTarget(ctx context.Context) string {
	if target, ok := ctx.Value(TargetKey).(string); ok {
		return target
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}

	if target := GetTarget(ctx); target != "" {
		fields = append(fields, "shadow_target", target)
	}

	return fields
}
