package shadow

import (
	"fmt"
	"time"
)

const (
	// DefaultQueueCapacity bounds the clone backlog when no capacity is
	// configured.
	DefaultQueueCapacity = 256

	// DefaultWorkerCount is the delivery concurrency when none is
	// configured.
	DefaultWorkerCount = 4

	// DefaultAttemptTimeout bounds a single delivery attempt.
	DefaultAttemptTimeout = 5 * time.Second

	// DefaultMaxAttempts is the delivery attempt budget per task. One means
	// no retry.
	DefaultMaxAttempts = 1

	// DefaultShutdownGracePeriod bounds the drain phase during Stop.
	DefaultShutdownGracePeriod = 15 * time.Second
)

// Options configure an Engine. The zero value of every field except
// TargetURL is replaced by the package default, so embedding callers only
// set what they need.
type Options struct {
	// TargetURL is the shadow destination base URL. Required.
	TargetURL string

	// QueueCapacity is the maximum number of clones buffered between
	// admission and delivery. Must be positive.
	// Default: 256
	QueueCapacity int

	// OverflowPolicy selects the backpressure behavior at capacity.
	// Default: reject-new
	OverflowPolicy OverflowPolicy

	// WorkerCount is the fixed number of concurrent delivery workers, and
	// the bound on concurrent shadow traffic. Must be positive.
	// Default: 4
	WorkerCount int

	// AttemptTimeout bounds each delivery attempt.
	// Default: 5s
	AttemptTimeout time.Duration

	// MaxAttempts is the number of delivery attempts per clone before it is
	// abandoned. Must be at least 1.
	// Default: 1
	MaxAttempts int

	// ShutdownGracePeriod is how long Stop waits for in-flight deliveries
	// before force-cancelling them, when the Stop context carries no
	// deadline of its own.
	// Default: 15s
	ShutdownGracePeriod time.Duration
}

// applyDefaults fills zero-valued fields with package defaults.
func (o *Options) applyDefaults() {
	if o.QueueCapacity == 0 {
		o.QueueCapacity = DefaultQueueCapacity
	}
	if o.OverflowPolicy == "" {
		o.OverflowPolicy = OverflowReject
	}
	if o.WorkerCount == 0 {
		o.WorkerCount = DefaultWorkerCount
	}
	if o.AttemptTimeout == 0 {
		o.AttemptTimeout = DefaultAttemptTimeout
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.ShutdownGracePeriod == 0 {
		o.ShutdownGracePeriod = DefaultShutdownGracePeriod
	}
}

// validate checks the options after defaults have been applied.
func (o *Options) validate() error {
	if o.TargetURL == "" {
		return fmt.Errorf("shadow: target URL is required")
	}
	if o.QueueCapacity < 1 {
		return fmt.Errorf("shadow: queue capacity must be positive, got %d", o.QueueCapacity)
	}
	if !o.OverflowPolicy.Valid() {
		return fmt.Errorf("shadow: unknown overflow policy %q", o.OverflowPolicy)
	}
	if o.WorkerCount < 1 {
		return fmt.Errorf("shadow: worker count must be positive, got %d", o.WorkerCount)
	}
	if o.MaxAttempts < 1 {
		return fmt.Errorf("shadow: max attempts must be at least 1, got %d", o.MaxAttempts)
	}
	if o.AttemptTimeout < 0 {
		return fmt.Errorf("shadow: attempt timeout must not be negative, got %s", o.AttemptTimeout)
	}
	if o.ShutdownGracePeriod < 0 {
		return fmt.Errorf("shadow: shutdown grace period must not be negative, got %s", o.ShutdownGracePeriod)
	}
	return nil
}
