// Package server assembles the traffic shadowing proxy: an HTTP listener,
// the synchronous origin forwarder, and the background shadow engine.
//
// # Architecture
//
// Each request is accepted exactly once. The listener hands it to the
// dispatch handler, which forwards it to the origin and relays the origin
// response to the caller. Before the origin round trip starts, a clone of
// the request is submitted to the shadow engine, which delivers it to the
// shadow target from a worker pool. Shadow delivery never delays and never
// fails the caller's response.
//
//	client --> listener --> dispatch --> origin --> client
//	                           │
//	                           └--> engine queue --> workers --> shadow target
//
// # Basic Usage
//
//	cfg, err := config.LoadConfig("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Blocks until SIGINT/SIGTERM or context cancellation.
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Routes
//
//   - /healthz reports process liveness.
//   - /readyz reports readiness; it returns 503 until the shadow engine is
//     running and again once draining begins.
//   - /metrics exposes Prometheus metrics when telemetry.metrics.enabled is
//     set, at the configured path.
//   - every other path is proxied traffic.
//
// # Graceful Shutdown
//
// Shutdown stops the shadow engine before the listener. The engine closes
// its queue immediately, so clones of requests accepted during the drain
// are refused fast and recorded as dropped, while queued and in-flight
// deliveries get the shutdown grace period to finish. Only after the
// engine has stopped does the listener drain, bounded by the server
// shutdown timeout.
package server
