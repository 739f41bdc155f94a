// Package shadow implements the shadow dispatch engine, the asynchronous
// half of the traffic-shadowing proxy.
//
// The engine accepts a captured request exactly once, clones it into a Task,
// and delivers the clone to the shadow target under bounded concurrency with
// explicit backpressure. Nothing that happens on the shadow path, including
// queue overflow, delivery failure, timeouts or shutdown, can delay or alter
// the primary response.
//
// # Architecture
//
// Three pieces cooperate:
//
//   - Queue: a bounded FIFO between admission and delivery. Enqueue never
//     blocks; at capacity the configured overflow policy either rejects the
//     newest clone or evicts the oldest.
//   - Workers: a fixed pool of goroutines draining the queue. The pool size
//     is the sole admission-control lever for shadow network usage.
//   - Engine: the lifecycle controller owning both, moving through
//     Stopped, Starting, Running, Draining and back to Stopped.
//
// # Basic Usage
//
// Creating and running an engine:
//
//	import (
//	    "umbra-hq/umbra/pkg/shadow"
//	    "umbra-hq/umbra/pkg/upstream"
//	)
//
//	sender := upstream.NewShadowSender()
//	engine, err := shadow.NewEngine(shadow.Options{
//	    TargetURL:     "http://shadow.internal:8080",
//	    QueueCapacity: 512,
//	    WorkerCount:   8,
//	}, sender, observer)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := engine.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop(context.Background())
//
//	// Per accepted request, on the hot path:
//	engine.Submit(req) // never blocks, outcome reported asynchronously
//
// # Delivery Semantics
//
// Each clone gets up to MaxAttempts delivery attempts, each bounded by
// AttemptTimeout, with exponential backoff between attempts. Delivery means
// a complete HTTP exchange regardless of status code; the code is carried in
// the outcome. At-most-once holds per attempt: the engine never duplicates a
// clone, and a clone reaches at most one worker.
//
// # Outcomes
//
// Every clone terminates in exactly one Outcome, emitted to the Observer:
//
//   - delivered: the shadow target answered
//   - failed: every attempt ended in a transport error
//   - timed_out: the final attempt exceeded its deadline
//   - dropped: the queue refused or evicted the clone
//   - cancelled: shutdown ended the clone before delivery finished
//
// Outcomes are fire-and-forget observability events. The engine never stores
// them and never depends on the observer's behavior.
//
// # Shutdown
//
// Stop closes admission immediately, records the undispatched backlog as
// cancelled, and gives in-flight deliveries a grace period to finish. When
// the grace expires, the drain context aborts whatever is still running and
// those tasks are recorded cancelled too. The HTTP server always stops the
// engine before tearing down its listener.
package shadow
