package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Apply defaults
	ApplyDefaults(&cfg)

	// Validate
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention UMBRA_SECTION_FIELD (e.g., UMBRA_SHADOW_TARGET_URL).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format UMBRA_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("UMBRA_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("UMBRA_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("UMBRA_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("UMBRA_SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if val := os.Getenv("UMBRA_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("UMBRA_SERVER_MAX_HEADER_BYTES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.MaxHeaderBytes = i
		}
	}

	// Origin overrides
	if val := os.Getenv("UMBRA_ORIGIN_TARGET_URL"); val != "" {
		cfg.Origin.TargetURL = val
	}
	if val := os.Getenv("UMBRA_ORIGIN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Origin.Timeout = d
		}
	}
	if val := os.Getenv("UMBRA_ORIGIN_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Origin.MaxBodyBytes = i
		}
	}

	// Shadow overrides
	if val := os.Getenv("UMBRA_SHADOW_TARGET_URL"); val != "" {
		cfg.Shadow.TargetURL = val
	}
	if val := os.Getenv("UMBRA_SHADOW_QUEUE_CAPACITY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Shadow.QueueCapacity = i
		}
	}
	if val := os.Getenv("UMBRA_SHADOW_OVERFLOW_POLICY"); val != "" {
		cfg.Shadow.OverflowPolicy = val
	}
	if val := os.Getenv("UMBRA_SHADOW_WORKER_COUNT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Shadow.WorkerCount = i
		}
	}
	if val := os.Getenv("UMBRA_SHADOW_ATTEMPT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Shadow.AttemptTimeout = d
		}
	}
	if val := os.Getenv("UMBRA_SHADOW_MAX_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Shadow.MaxAttempts = i
		}
	}
	if val := os.Getenv("UMBRA_SHADOW_SHUTDOWN_GRACE_PERIOD"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Shadow.ShutdownGracePeriod = d
		}
	}

	// Reload overrides
	if val := os.Getenv("UMBRA_RELOAD_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Reload.Enabled = b
		}
	}
	if val := os.Getenv("UMBRA_RELOAD_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Reload.Debounce = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("UMBRA_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("UMBRA_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("UMBRA_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("UMBRA_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("UMBRA_TELEMETRY_REPORT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Report.Enabled = b
		}
	}
	if val := os.Getenv("UMBRA_TELEMETRY_REPORT_SCHEDULE"); val != "" {
		cfg.Telemetry.Report.Schedule = val
	}

	// Security overrides
	if val := os.Getenv("UMBRA_SECURITY_TLS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Security.TLS.Enabled = b
		}
	}
	if val := os.Getenv("UMBRA_SECURITY_TLS_CERT_FILE"); val != "" {
		cfg.Security.TLS.CertFile = val
	}
	if val := os.Getenv("UMBRA_SECURITY_TLS_KEY_FILE"); val != "" {
		cfg.Security.TLS.KeyFile = val
	}
	if val := os.Getenv("UMBRA_SECURITY_TLS_MIN_VERSION"); val != "" {
		cfg.Security.TLS.MinVersion = val
	}
}
