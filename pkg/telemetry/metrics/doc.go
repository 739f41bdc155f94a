// Package metrics provides Prometheus metrics collection for the proxy.
//
// # Overview
//
// The metrics package reports both halves of the shadowing pipeline: the
// primary path a client actually waits on, and the shadow path that mirrors
// traffic in the background. The two live in separate metric subsystems so
// a regression on the mirror side is never mistaken for client impact.
//
// # Metric Subsystems
//
//   - http: Primary path request count, duration, and body sizes
//   - shadow: Task outcomes, shadow response codes, delivery durations,
//     queue wait, queue depth and overflow counters, engine state
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// Instrument the primary path
//	handler := collector.InstrumentHandler(dispatchHandler)
//
//	// Observe the shadow engine
//	engine, _ := shadow.NewEngine(sender, shadow.WithObserver(collector))
//	collector.ObserveEngine(engine)
//
//	// Expose the endpoint
//	mux.Handle("/metrics", collector.Handler())
//
// The collector implements shadow.Observer, so terminal outcomes and engine
// lifecycle transitions flow in without extra plumbing. ObserveEngine adds
// gauges that read queue depth, capacity, in-flight deliveries, and
// overflow counters straight from the engine on each scrape.
//
// # Prometheus Endpoint
//
// All metrics are exposed in standard Prometheus format:
//
//	# HELP umbra_shadow_outcomes_total Total number of shadow tasks by terminal status
//	# TYPE umbra_shadow_outcomes_total counter
//	umbra_shadow_outcomes_total{outcome="delivered"} 1234
//	umbra_shadow_outcomes_total{outcome="failed"} 7
//
// # Cardinality Management
//
// Label values under client control are bounded. The method label collapses
// into "other" once the cardinality limit is reached; status codes and
// outcome names are finite by construction.
package metrics
