package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Config{}
	ApplyDefaults(&cfg)

	// Target URLs are required and have no defaults
	cfg.Origin.TargetURL = "https://origin.test"
	cfg.Shadow.TargetURL = "https://shadow.test"

	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithOriginTarget sets the origin target URL.
func (b *ConfigBuilder) WithOriginTarget(url string) *ConfigBuilder {
	b.cfg.Origin.TargetURL = url
	return b
}

// WithOriginTimeout sets the origin request timeout.
func (b *ConfigBuilder) WithOriginTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Origin.Timeout = d
	return b
}

// WithShadowTarget sets the shadow target URL.
func (b *ConfigBuilder) WithShadowTarget(url string) *ConfigBuilder {
	b.cfg.Shadow.TargetURL = url
	return b
}

// WithQueueCapacity sets the shadow queue capacity.
func (b *ConfigBuilder) WithQueueCapacity(n int) *ConfigBuilder {
	b.cfg.Shadow.QueueCapacity = n
	return b
}

// WithOverflowPolicy sets the shadow queue overflow policy.
func (b *ConfigBuilder) WithOverflowPolicy(policy string) *ConfigBuilder {
	b.cfg.Shadow.OverflowPolicy = policy
	return b
}

// WithWorkerCount sets the shadow worker count.
func (b *ConfigBuilder) WithWorkerCount(n int) *ConfigBuilder {
	b.cfg.Shadow.WorkerCount = n
	return b
}

// WithMaxAttempts sets the shadow delivery attempt limit.
func (b *ConfigBuilder) WithMaxAttempts(n int) *ConfigBuilder {
	b.cfg.Shadow.MaxAttempts = n
	return b
}

// WithReloadEnabled sets whether config hot reload is enabled.
func (b *ConfigBuilder) WithReloadEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Reload.Enabled = enabled
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithLoggingFormat sets the logging format.
func (b *ConfigBuilder) WithLoggingFormat(format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Format = format
	return b
}

// WithMetricsEnabled sets whether metrics are enabled.
func (b *ConfigBuilder) WithMetricsEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Telemetry.Metrics.Enabled = enabled
	return b
}

// WithReportSchedule enables the periodic report with the given schedule.
func (b *ConfigBuilder) WithReportSchedule(schedule string) *ConfigBuilder {
	b.cfg.Telemetry.Report.Enabled = true
	b.cfg.Telemetry.Report.Schedule = schedule
	return b
}

// WithTLS sets TLS configuration.
func (b *ConfigBuilder) WithTLS(certFile, keyFile string) *ConfigBuilder {
	b.cfg.Security.TLS.Enabled = true
	b.cfg.Security.TLS.CertFile = certFile
	b.cfg.Security.TLS.KeyFile = keyFile
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
// This is useful for tests that don't care about most configuration values.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
