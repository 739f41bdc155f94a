package config

import "time"

// Config is the root configuration structure for Umbra.
// It contains all configuration sections for the proxy server, the origin
// target, the shadow dispatch engine, telemetry, and security settings.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and header limits.
	Server ServerConfig `yaml:"server"`

	// Origin contains configuration for the primary target. Every request
	// is forwarded there synchronously and its response is returned to the
	// client.
	Origin OriginConfig `yaml:"origin"`

	// Shadow contains configuration for the shadow dispatch engine: the
	// shadow target, queue sizing, overflow policy, worker pool, and
	// delivery retry behavior.
	Shadow ShadowConfig `yaml:"shadow"`

	// Reload contains configuration hot-reload settings.
	Reload HotReloadConfig `yaml:"reload"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and the periodic outcome report.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains security-related configuration including TLS
	// settings for the listener.
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the proxy to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must cover the origin timeout plus relay time.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for the HTTP listener
	// to drain during graceful shutdown. The shadow engine drains first,
	// governed by shadow.shutdown_grace_period; this timeout only covers
	// the listener.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values, including the
	// request line. It does not limit the size of the request body.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// OriginConfig contains configuration for the primary target.
type OriginConfig struct {
	// TargetURL is the base URL of the origin. Required.
	// Example: "http://origin.internal:9000"
	TargetURL string `yaml:"target_url"`

	// Timeout bounds each primary exchange from dialing the origin through
	// relaying the last response byte. Expired exchanges answer the client
	// with 504 Gateway Timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxBodyBytes is the largest request body the proxy will buffer for
	// cloning. Larger requests are refused with 413 before either path runs.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// ShadowConfig contains configuration for the shadow dispatch engine.
type ShadowConfig struct {
	// TargetURL is the base URL of the shadow target. Required.
	// Example: "http://candidate.internal:9000"
	TargetURL string `yaml:"target_url"`

	// QueueCapacity is the maximum number of clones waiting for delivery.
	// Must be positive.
	// Default: 256
	QueueCapacity int `yaml:"queue_capacity"`

	// OverflowPolicy selects what happens when the queue is full.
	// Options: "reject-new" (refuse the arriving clone),
	// "drop-oldest" (evict the oldest waiting clone)
	// Default: "reject-new"
	OverflowPolicy string `yaml:"overflow_policy"`

	// WorkerCount is the number of goroutines draining the queue. It caps
	// concurrent shadow deliveries. Must be positive.
	// Default: 4
	WorkerCount int `yaml:"worker_count"`

	// AttemptTimeout bounds a single delivery attempt to the shadow target.
	// Default: 5s
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// MaxAttempts is the number of delivery attempts per clone, the first
	// try included. Must be at least 1.
	// Default: 1
	MaxAttempts int `yaml:"max_attempts"`

	// ShutdownGracePeriod is how long Stop waits for in-flight deliveries
	// before force-cancelling them. Queued clones that never started are
	// cancelled immediately at shutdown.
	// Default: 15s
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"`
}

// HotReloadConfig contains configuration hot-reload settings.
type HotReloadConfig struct {
	// Enabled turns on config file watching. Only the shadow target URL
	// and the log level are applied live; other changes need a restart.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Debounce is the quiet period after a file event before the config
	// is re-read. Editors often write a file several times per save.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Report contains the periodic shadow outcome report configuration.
	Report ReportConfig `yaml:"report"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the Prometheus endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "umbra"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets defines histogram buckets for request and
	// shadow delivery durations (seconds).
	// Default: [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// ReportConfig contains configuration for the periodic outcome report.
type ReportConfig struct {
	// Enabled controls whether the periodic report is logged.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression for report emission. The extended
	// "@every" syntax is accepted.
	// Default: "@every 1m"
	Schedule string `yaml:"schedule"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	// TLS contains TLS configuration for the listener.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS configuration.
type TLSConfig struct {
	// Enabled controls whether TLS is enabled for the listener.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the TLS certificate file.
	// Required when Enabled is true.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the TLS private key file.
	// Required when Enabled is true.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version to accept.
	// Options: "1.2", "1.3"
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`
}
