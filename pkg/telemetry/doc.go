// Package telemetry provides observability for the proxy.
//
// # Overview
//
// The telemetry package implements structured logging, Prometheus metrics,
// and periodic outcome reporting. Shadow delivery results are invisible to
// clients by design, so these packages are the only place they surface.
//
// # Components
//
//   - logging: Structured logging with runtime level changes
//   - metrics: Prometheus metrics for the primary and shadow paths
//   - report: Scheduled log summaries of shadow outcomes
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  cfg.Telemetry.Logging.Level,
//	    Format: cfg.Telemetry.Logging.Format,
//	})
//	slog.SetDefault(logger.Slog())
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	reporter := report.NewReporter(&cfg.Telemetry.Report, logger.Slog())
//
//	engine, err := shadow.NewEngine(sender,
//	    shadow.WithObserver(shadow.MultiObserver{collector, reporter}),
//	)
//
// Both the collector and the reporter implement shadow.Observer, so engine
// outcomes reach metrics and reports through a single fan-out.
package telemetry
