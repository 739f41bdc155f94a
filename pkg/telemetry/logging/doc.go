// Package logging provides structured logging for the proxy.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON and text formats
//   - Context-aware logging with request IDs and shadow targets
//   - Runtime level changes for the configuration hot reload path
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	// Create a logger
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Log structured data
//	logger.Info("request forwarded",
//	    "request_id", "req-123",
//	    "status", 200,
//	    "duration_ms", 12,
//	)
//
//	// Create a context-aware logger
//	ctx := logging.WithRequestID(ctx, "req-123")
//	ctxLogger := logger.WithContext(ctx)
//	ctxLogger.Info("shadow clone enqueued") // Includes request_id automatically
//
// # Runtime Level Changes
//
// SetLevel changes the minimum level of a live logger, including all
// loggers derived from it with With or WithContext:
//
//	logger.SetLevel("debug")
//
// The configuration watcher calls SetLevel when the logging level in the
// config file changes, so verbosity can be raised on a running proxy
// without dropping connections.
//
// # Default Logger Wiring
//
// Components in this codebase take a *slog.Logger rather than depending on
// this package directly. The Slog accessor bridges the two:
//
//	slog.SetDefault(logger.Slog())
package logging
