// Package config provides configuration management for Umbra.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention UMBRA_SECTION_FIELD.
// For example:
//
//   - UMBRA_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - UMBRA_SHADOW_TARGET_URL overrides shadow.target_url
//   - UMBRA_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Server.ListenAddress)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Hot Reload
//
// When reload.enabled is set, a Watcher observes the configuration file and
// re-runs the full load pipeline on every change:
//
//	watcher, err := config.NewWatcher("config.yaml", 500*time.Millisecond, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go watcher.Watch(ctx, func(cfg *config.Config) {
//	    // apply the fields that support live updates
//	})
//
// Rapid successive writes are debounced so an editor save produces a single
// reload. A reload that fails to parse or validate is logged and discarded;
// the previous configuration stays in effect. Only a subset of fields take
// effect without a restart (shadow target URL, logging level); the rest
// require a process restart because they size buffers and pools at startup.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Required field checks (e.g., origin and shadow target URLs)
//   - Range validation (e.g., queue capacity and worker count must be positive)
//   - Format validation (e.g., valid URL format, known overflow policies)
//   - Logical validation (e.g., TLS requires certificate and key files)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - origin.target_url: field is required
//	  - shadow.queue_capacity: must be greater than 0
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	server:
//	  listen_address: "127.0.0.1:8080"
//
//	origin:
//	  target_url: "https://api.internal.example.com"
//
//	shadow:
//	  target_url: "https://api-canary.internal.example.com"
//	  queue_capacity: 256
//	  overflow_policy: "reject-new"
//	  worker_count: 4
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses read-write
// locks to allow concurrent reads while protecting against concurrent writes during
// reload operations.
package config
