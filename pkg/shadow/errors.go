package shadow

import "fmt"

// QueueFullError indicates a clone was refused because the queue was at
// capacity under the reject-new policy, or displaced another clone under
// drop-oldest. It is recorded through the observer and never surfaced to the
// caller of the primary path.
type QueueFullError struct {
	// Capacity is the configured queue capacity that was exhausted.
	Capacity int
}

// Error implements the error interface.
func (e *QueueFullError) Error() string {
	return fmt.Sprintf("shadow queue full (capacity %d)", e.Capacity)
}

// QueueClosedError indicates a clone arrived after the engine stopped
// accepting new work.
type QueueClosedError struct{}

// Error implements the error interface.
func (e *QueueClosedError) Error() string {
	return "shadow queue closed"
}

// DeliveryError indicates that the shadow target could not be reached, or
// did not answer within the attempt timeout, after the task's full attempt
// budget.
type DeliveryError struct {
	// Target is the shadow base URL that failed.
	Target string

	// Attempts is the number of delivery attempts made.
	Attempts int

	// Err is the final underlying delivery error.
	Err error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("shadow delivery to %s failed after %d attempt(s): %v", e.Target, e.Attempts, e.Err)
}

// Unwrap returns the underlying delivery error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// CancelledError indicates shutdown ended a task before delivery finished.
type CancelledError struct {
	// RequestID identifies the task that was cut short.
	RequestID string
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	return fmt.Sprintf("shadow task %s cancelled during shutdown", e.RequestID)
}
