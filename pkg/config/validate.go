package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "shadow.target_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	// Validate server configuration
	errs = append(errs, validateServer(&cfg.Server)...)

	// Validate origin configuration
	errs = append(errs, validateOrigin(&cfg.Origin)...)

	// Validate shadow configuration
	errs = append(errs, validateShadow(&cfg.Shadow)...)

	// Validate telemetry configuration
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	// Validate security configuration
	errs = append(errs, validateSecurity(&cfg.Security)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	// Validate listen address is not empty
	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	// Validate timeouts are not negative
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}

	// Validate max header bytes is reasonable
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	return errs
}

// validateOrigin validates origin configuration.
func validateOrigin(cfg *OriginConfig) []FieldError {
	var errs []FieldError

	errs = append(errs, validateTargetURL("origin.target_url", cfg.TargetURL)...)

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "origin.timeout",
			Message: "timeout must be positive",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "origin.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}

	return errs
}

// validateShadow validates shadow configuration.
func validateShadow(cfg *ShadowConfig) []FieldError {
	var errs []FieldError

	errs = append(errs, validateTargetURL("shadow.target_url", cfg.TargetURL)...)

	if cfg.QueueCapacity <= 0 {
		errs = append(errs, FieldError{
			Field:   "shadow.queue_capacity",
			Message: "queue capacity must be positive",
		})
	}

	switch cfg.OverflowPolicy {
	case "reject-new", "drop-oldest":
	default:
		errs = append(errs, FieldError{
			Field:   "shadow.overflow_policy",
			Message: fmt.Sprintf("unknown policy %q (expected \"reject-new\" or \"drop-oldest\")", cfg.OverflowPolicy),
		})
	}

	if cfg.WorkerCount <= 0 {
		errs = append(errs, FieldError{
			Field:   "shadow.worker_count",
			Message: "worker count must be positive",
		})
	}
	if cfg.AttemptTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "shadow.attempt_timeout",
			Message: "attempt timeout must be positive",
		})
	}
	if cfg.MaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "shadow.max_attempts",
			Message: "max attempts must be at least 1",
		})
	}
	if cfg.ShutdownGracePeriod < 0 {
		errs = append(errs, FieldError{
			Field:   "shadow.shutdown_grace_period",
			Message: "shutdown grace period must be positive",
		})
	}

	return errs
}

// validateTargetURL checks that a target URL is an absolute http or https URL.
func validateTargetURL(field, raw string) []FieldError {
	if raw == "" {
		return []FieldError{{
			Field:   field,
			Message: "target URL is required",
		}}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return []FieldError{{
			Field:   field,
			Message: fmt.Sprintf("invalid URL format: %v", err),
		}}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return []FieldError{{
			Field:   field,
			Message: "target URL must use http or https",
		}}
	}
	if u.Host == "" {
		return []FieldError{{
			Field:   field,
			Message: "target URL has no host",
		}}
	}

	return nil
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate log level
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (expected debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	// Validate log format
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (expected json or text)", cfg.Logging.Format),
		})
	}

	// Validate metrics path
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	// Validate histogram buckets are ascending
	for i := 1; i < len(cfg.Metrics.RequestDurationBuckets); i++ {
		if cfg.Metrics.RequestDurationBuckets[i] <= cfg.Metrics.RequestDurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.request_duration_buckets",
				Message: "buckets must be in strictly ascending order",
			})
			break
		}
	}

	// Validate report schedule parses as a cron expression
	if cfg.Report.Enabled && cfg.Report.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Report.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.report.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

// validateSecurity validates security configuration.
func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   "security.tls.cert_file",
				Message: "cert file is required when TLS is enabled",
			})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "security.tls.key_file",
				Message: "key file is required when TLS is enabled",
			})
		}
	}

	switch cfg.TLS.MinVersion {
	case "", "1.2", "1.3":
	default:
		errs = append(errs, FieldError{
			Field:   "security.tls.min_version",
			Message: fmt.Sprintf("unknown TLS version %q (expected \"1.2\" or \"1.3\")", cfg.TLS.MinVersion),
		})
	}

	return errs
}
