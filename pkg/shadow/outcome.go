package shadow

import "time"

// Status classifies the terminal state of a shadow task.
type Status string

const (
	// StatusDelivered means the shadow target completed an HTTP exchange,
	// whatever its status code. The code is carried in the outcome.
	StatusDelivered Status = "delivered"

	// StatusFailed means every attempt ended in a transport failure.
	StatusFailed Status = "failed"

	// StatusTimedOut means the final attempt exceeded the attempt timeout or
	// the task exhausted its overall delivery budget.
	StatusTimedOut Status = "timed_out"

	// StatusDropped means the clone never entered the queue, or was evicted
	// from it before any worker picked it up.
	StatusDropped Status = "dropped"

	// StatusCancelled means shutdown ended the task before delivery
	// finished.
	StatusCancelled Status = "cancelled"
)

// Outcome records the terminal state of one shadow task. Outcomes are
// emitted to the observer and never stored by the engine.
type Outcome struct {
	// RequestID ties the outcome back to the originating exchange.
	RequestID string

	// Target is the shadow base URL the task was bound to.
	Target string

	// Status classifies how the task ended.
	Status Status

	// StatusCode is the shadow response status, set only when Status is
	// StatusDelivered.
	StatusCode int

	// Attempts counts the delivery attempts that ran. Zero for clones that
	// never reached a worker.
	Attempts int

	// Err holds the terminal error for everything but a delivery.
	Err error

	// QueuedFor is how long the clone waited before a worker picked it up.
	QueuedFor time.Duration

	// Duration is how long the final delivery attempt took.
	Duration time.Duration
}

// EngineState names a phase of the engine lifecycle.
type EngineState string

const (
	// EngineStopped means no workers are running.
	EngineStopped EngineState = "stopped"

	// EngineStarting means workers are being spawned.
	EngineStarting EngineState = "starting"

	// EngineRunning means the engine accepts and delivers clones.
	EngineRunning EngineState = "running"

	// EngineDraining means admission is closed and in-flight work is being
	// allowed to finish.
	EngineDraining EngineState = "draining"
)

// Observer receives terminal outcomes and lifecycle transitions from the
// engine. Implementations must be safe for concurrent use: outcomes arrive
// from worker goroutines. The engine never depends on an observer's
// behavior; a slow observer slows delivery accounting but cannot fail it.
type Observer interface {
	// ObserveOutcome is called exactly once per clone with its terminal
	// state.
	ObserveOutcome(Outcome)

	// ObserveState is called on every engine lifecycle transition.
	ObserveState(EngineState)
}

// NopObserver discards everything it observes.
type NopObserver struct{}

// ObserveOutcome implements Observer.
func (NopObserver) ObserveOutcome(Outcome) {}

// ObserveState implements Observer.
func (NopObserver) ObserveState(EngineState) {}

// MultiObserver fans observations out to every observer in order.
type MultiObserver []Observer

// ObserveOutcome implements Observer.
func (m MultiObserver) ObserveOutcome(o Outcome) {
	for _, obs := range m {
		obs.ObserveOutcome(o)
	}
}

// ObserveState implements Observer.
func (m MultiObserver) ObserveState(s EngineState) {
	for _, obs := range m {
		obs.ObserveState(s)
	}
}
