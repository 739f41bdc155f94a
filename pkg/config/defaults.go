package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Origin defaults
	DefaultOriginTimeout = 30 * time.Second
	DefaultMaxBodyBytes  = int64(10 * 1024 * 1024) // 10MB

	// Shadow defaults
	DefaultQueueCapacity       = 256
	DefaultOverflowPolicy      = "reject-new"
	DefaultWorkerCount         = 4
	DefaultAttemptTimeout      = 5 * time.Second
	DefaultMaxAttempts         = 1
	DefaultShutdownGracePeriod = 15 * time.Second

	// Reload defaults
	DefaultReloadDebounce = 500 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel    = "info"
	DefaultLoggingFormat   = "json"
	DefaultPrometheusPath  = "/metrics"
	DefaultMetricNamespace = "umbra"
	DefaultReportSchedule  = "@every 1m"

	// Security defaults
	DefaultTLSMinVersion = "1.3"
)

// DefaultRequestDurationBuckets are the histogram buckets, in seconds, used
// for request and shadow delivery latencies when none are configured.
var DefaultRequestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Origin defaults
	if cfg.Origin.Timeout == 0 {
		cfg.Origin.Timeout = DefaultOriginTimeout
	}
	if cfg.Origin.MaxBodyBytes == 0 {
		cfg.Origin.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Shadow defaults
	if cfg.Shadow.QueueCapacity == 0 {
		cfg.Shadow.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.Shadow.OverflowPolicy == "" {
		cfg.Shadow.OverflowPolicy = DefaultOverflowPolicy
	}
	if cfg.Shadow.WorkerCount == 0 {
		cfg.Shadow.WorkerCount = DefaultWorkerCount
	}
	if cfg.Shadow.AttemptTimeout == 0 {
		cfg.Shadow.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.Shadow.MaxAttempts == 0 {
		cfg.Shadow.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Shadow.ShutdownGracePeriod == 0 {
		cfg.Shadow.ShutdownGracePeriod = DefaultShutdownGracePeriod
	}

	// Reload defaults
	if cfg.Reload.Debounce == 0 {
		cfg.Reload.Debounce = DefaultReloadDebounce
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	applyMetricsDefaults(cfg)
	applyReportDefaults(cfg)

	// Security defaults
	if cfg.Security.TLS.MinVersion == "" {
		cfg.Security.TLS.MinVersion = DefaultTLSMinVersion
	}
}

// applyMetricsDefaults applies default values to metrics configuration.
// Enabled defaults to true; an untouched section cannot be told apart from
// an explicit "enabled: false", so the default only applies when no other
// metrics field is set either.
func applyMetricsDefaults(cfg *Config) {
	metrics := &cfg.Telemetry.Metrics

	if !metrics.Enabled {
		hasAnyConfig := metrics.Path != "" ||
			metrics.Namespace != "" ||
			len(metrics.RequestDurationBuckets) > 0

		if !hasAnyConfig {
			metrics.Enabled = true
		}
	}

	if metrics.Path == "" {
		metrics.Path = DefaultPrometheusPath
	}
	if metrics.Namespace == "" {
		metrics.Namespace = DefaultMetricNamespace
	}
	if len(metrics.RequestDurationBuckets) == 0 {
		metrics.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}
}

// applyReportDefaults applies default values to report configuration, with
// the same enabled heuristic as metrics.
func applyReportDefaults(cfg *Config) {
	report := &cfg.Telemetry.Report

	if !report.Enabled && report.Schedule == "" {
		report.Enabled = true
	}

	if report.Schedule == "" {
		report.Schedule = DefaultReportSchedule
	}
}
