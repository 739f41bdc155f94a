package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := MinimalConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		// No listen address, no target URLs, zero queue capacity,
		// empty logging level and format
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}

	// Verify error message includes multiple errors
	errMsg := validationErr.Error()
	if !strings.Contains(errMsg, "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", errMsg)
	}
}

func TestValidate_ServerConfig(t *testing.T) {
	tests := []struct {
		name       string
		server     ServerConfig
		wantError  bool
		errorField string
	}{
		{
			name: "valid server config",
			server: ServerConfig{
				ListenAddress:  "127.0.0.1:8080",
				ReadTimeout:    DefaultReadTimeout,
				WriteTimeout:   DefaultWriteTimeout,
				IdleTimeout:    DefaultIdleTimeout,
				MaxHeaderBytes: DefaultMaxHeaderBytes,
			},
			wantError: false,
		},
		{
			name: "empty listen address",
			server: ServerConfig{
				ListenAddress: "",
			},
			wantError:  true,
			errorField: "server.listen_address",
		},
		{
			name: "negative read timeout",
			server: ServerConfig{
				ListenAddress: "127.0.0.1:8080",
				ReadTimeout:   -1,
			},
			wantError:  true,
			errorField: "server.read_timeout",
		},
		{
			name: "excessive max header bytes",
			server: ServerConfig{
				ListenAddress:  "127.0.0.1:8080",
				MaxHeaderBytes: 20 * 1024 * 1024, // 20MB
			},
			wantError:  true,
			errorField: "server.max_header_bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateServer(&tt.server)
			checkFieldErrors(t, errs, tt.wantError, tt.errorField)
		})
	}
}

func TestValidate_OriginConfig(t *testing.T) {
	tests := []struct {
		name       string
		origin     OriginConfig
		wantError  bool
		errorField string
	}{
		{
			name: "valid origin config",
			origin: OriginConfig{
				TargetURL: "https://api.internal.example.com",
				Timeout:   DefaultOriginTimeout,
			},
			wantError: false,
		},
		{
			name:       "missing target URL",
			origin:     OriginConfig{},
			wantError:  true,
			errorField: "origin.target_url",
		},
		{
			name: "non-http scheme",
			origin: OriginConfig{
				TargetURL: "ftp://api.internal.example.com",
			},
			wantError:  true,
			errorField: "origin.target_url",
		},
		{
			name: "missing host",
			origin: OriginConfig{
				TargetURL: "http://",
			},
			wantError:  true,
			errorField: "origin.target_url",
		},
		{
			name: "negative timeout",
			origin: OriginConfig{
				TargetURL: "https://api.internal.example.com",
				Timeout:   -1 * time.Second,
			},
			wantError:  true,
			errorField: "origin.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateOrigin(&tt.origin)
			checkFieldErrors(t, errs, tt.wantError, tt.errorField)
		})
	}
}

func TestValidate_ShadowConfig(t *testing.T) {
	valid := ShadowConfig{
		TargetURL:           "https://api-canary.internal.example.com",
		QueueCapacity:       DefaultQueueCapacity,
		OverflowPolicy:      DefaultOverflowPolicy,
		WorkerCount:         DefaultWorkerCount,
		AttemptTimeout:      DefaultAttemptTimeout,
		MaxAttempts:         DefaultMaxAttempts,
		ShutdownGracePeriod: DefaultShutdownGracePeriod,
	}

	tests := []struct {
		name       string
		mutate     func(*ShadowConfig)
		wantError  bool
		errorField string
	}{
		{
			name:      "valid shadow config",
			mutate:    func(*ShadowConfig) {},
			wantError: false,
		},
		{
			name:       "missing target URL",
			mutate:     func(c *ShadowConfig) { c.TargetURL = "" },
			wantError:  true,
			errorField: "shadow.target_url",
		},
		{
			name:       "zero queue capacity",
			mutate:     func(c *ShadowConfig) { c.QueueCapacity = 0 },
			wantError:  true,
			errorField: "shadow.queue_capacity",
		},
		{
			name:       "negative queue capacity",
			mutate:     func(c *ShadowConfig) { c.QueueCapacity = -5 },
			wantError:  true,
			errorField: "shadow.queue_capacity",
		},
		{
			name:       "unknown overflow policy",
			mutate:     func(c *ShadowConfig) { c.OverflowPolicy = "spill-to-disk" },
			wantError:  true,
			errorField: "shadow.overflow_policy",
		},
		{
			name:      "drop-oldest policy accepted",
			mutate:    func(c *ShadowConfig) { c.OverflowPolicy = "drop-oldest" },
			wantError: false,
		},
		{
			name:       "zero worker count",
			mutate:     func(c *ShadowConfig) { c.WorkerCount = 0 },
			wantError:  true,
			errorField: "shadow.worker_count",
		},
		{
			name:       "zero attempt timeout",
			mutate:     func(c *ShadowConfig) { c.AttemptTimeout = 0 },
			wantError:  true,
			errorField: "shadow.attempt_timeout",
		},
		{
			name:       "zero max attempts",
			mutate:     func(c *ShadowConfig) { c.MaxAttempts = 0 },
			wantError:  true,
			errorField: "shadow.max_attempts",
		},
		{
			name:       "negative shutdown grace period",
			mutate:     func(c *ShadowConfig) { c.ShutdownGracePeriod = -1 * time.Second },
			wantError:  true,
			errorField: "shadow.shutdown_grace_period",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			errs := validateShadow(&cfg)
			checkFieldErrors(t, errs, tt.wantError, tt.errorField)
		})
	}
}

func TestValidate_TelemetryConfig(t *testing.T) {
	valid := TelemetryConfig{
		Logging: LoggingConfig{
			Level:  DefaultLoggingLevel,
			Format: DefaultLoggingFormat,
		},
		Metrics: MetricsConfig{
			Enabled:                true,
			Path:                   DefaultPrometheusPath,
			Namespace:              DefaultMetricNamespace,
			RequestDurationBuckets: DefaultRequestDurationBuckets,
		},
		Report: ReportConfig{
			Enabled:  true,
			Schedule: DefaultReportSchedule,
		},
	}

	tests := []struct {
		name       string
		mutate     func(*TelemetryConfig)
		wantError  bool
		errorField string
	}{
		{
			name:      "valid telemetry config",
			mutate:    func(*TelemetryConfig) {},
			wantError: false,
		},
		{
			name:       "unknown logging level",
			mutate:     func(c *TelemetryConfig) { c.Logging.Level = "verbose" },
			wantError:  true,
			errorField: "telemetry.logging.level",
		},
		{
			name:       "unknown logging format",
			mutate:     func(c *TelemetryConfig) { c.Logging.Format = "xml" },
			wantError:  true,
			errorField: "telemetry.logging.format",
		},
		{
			name:       "metrics path without leading slash",
			mutate:     func(c *TelemetryConfig) { c.Metrics.Path = "metrics" },
			wantError:  true,
			errorField: "telemetry.metrics.path",
		},
		{
			name: "metrics path ignored when disabled",
			mutate: func(c *TelemetryConfig) {
				c.Metrics.Enabled = false
				c.Metrics.Path = "metrics"
			},
			wantError: false,
		},
		{
			name: "non-ascending histogram buckets",
			mutate: func(c *TelemetryConfig) {
				c.Metrics.RequestDurationBuckets = []float64{0.1, 0.5, 0.25, 1.0}
			},
			wantError:  true,
			errorField: "telemetry.metrics.request_duration_buckets",
		},
		{
			name:       "invalid report schedule",
			mutate:     func(c *TelemetryConfig) { c.Report.Schedule = "every minute or so" },
			wantError:  true,
			errorField: "telemetry.report.schedule",
		},
		{
			name:      "descriptor report schedule accepted",
			mutate:    func(c *TelemetryConfig) { c.Report.Schedule = "@every 30s" },
			wantError: false,
		},
		{
			name:      "cron expression report schedule accepted",
			mutate:    func(c *TelemetryConfig) { c.Report.Schedule = "*/5 * * * *" },
			wantError: false,
		},
		{
			name: "schedule ignored when report disabled",
			mutate: func(c *TelemetryConfig) {
				c.Report.Enabled = false
				c.Report.Schedule = "every minute or so"
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			errs := validateTelemetry(&cfg)
			checkFieldErrors(t, errs, tt.wantError, tt.errorField)
		})
	}
}

func TestValidate_SecurityConfig(t *testing.T) {
	tests := []struct {
		name       string
		security   SecurityConfig
		wantError  bool
		errorField string
	}{
		{
			name:      "TLS disabled",
			security:  SecurityConfig{},
			wantError: false,
		},
		{
			name: "TLS enabled with cert and key",
			security: SecurityConfig{
				TLS: TLSConfig{
					Enabled:  true,
					CertFile: "/etc/umbra/tls/cert.pem",
					KeyFile:  "/etc/umbra/tls/key.pem",
				},
			},
			wantError: false,
		},
		{
			name: "TLS enabled without cert",
			security: SecurityConfig{
				TLS: TLSConfig{
					Enabled: true,
					KeyFile: "/etc/umbra/tls/key.pem",
				},
			},
			wantError:  true,
			errorField: "security.tls.cert_file",
		},
		{
			name: "TLS enabled without key",
			security: SecurityConfig{
				TLS: TLSConfig{
					Enabled:  true,
					CertFile: "/etc/umbra/tls/cert.pem",
				},
			},
			wantError:  true,
			errorField: "security.tls.key_file",
		},
		{
			name: "unknown TLS min version",
			security: SecurityConfig{
				TLS: TLSConfig{
					MinVersion: "1.1",
				},
			},
			wantError:  true,
			errorField: "security.tls.min_version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateSecurity(&tt.security)
			checkFieldErrors(t, errs, tt.wantError, tt.errorField)
		})
	}
}

// checkFieldErrors asserts the presence or absence of a FieldError for the
// given field path.
func checkFieldErrors(t *testing.T, errs []FieldError, wantError bool, errorField string) {
	t.Helper()

	if wantError && len(errs) == 0 {
		t.Error("expected validation error, got none")
	}
	if !wantError && len(errs) > 0 {
		t.Errorf("expected no validation error, got: %v", errs)
	}
	if wantError && len(errs) > 0 {
		found := false
		for _, err := range errs {
			if err.Field == errorField {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected error for field %q, got errors: %v", errorField, errs)
		}
	}
}

func TestFieldError_Error(t *testing.T) {
	err := FieldError{Field: "shadow.queue_capacity", Message: "queue capacity must be positive"}
	want := "shadow.queue_capacity: queue capacity must be positive"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestValidationError_SingleError(t *testing.T) {
	err := ValidationError{Errors: []FieldError{
		{Field: "origin.target_url", Message: "target URL is required"},
	}}

	msg := err.Error()
	if !strings.Contains(msg, "origin.target_url") {
		t.Errorf("expected error message to contain field path, got: %s", msg)
	}
	if strings.Contains(msg, "errors:") {
		t.Errorf("single error should use compact format, got: %s", msg)
	}
}
