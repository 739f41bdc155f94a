package shadow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"umbra-hq/umbra/pkg/proxy"
)

// retryBackoffBase is the first wait between delivery attempts. Subsequent
// waits double per attempt.
const retryBackoffBase = 100 * time.Millisecond

// Deliverer sends one clone to its shadow target. Implementations must honor
// ctx cancellation and report the shadow's HTTP status code when a complete
// exchange happened, or a transport error when it did not.
type Deliverer interface {
	Deliver(ctx context.Context, task *Task) (statusCode int, err error)
}

// Engine is the shadow dispatch core. It owns the bounded clone queue and a
// fixed pool of delivery workers, keeps the shadow path isolated from the
// primary path, and drains or cancels outstanding work on shutdown.
//
// An engine is single use: Start it once, Stop it once. Clones submitted
// before Start are buffered and delivered once workers come up; clones
// submitted after Stop are refused and recorded as dropped.
type Engine struct {
	opts      Options
	queue     *Queue
	deliverer Deliverer
	observer  Observer
	logger    *slog.Logger

	mu      sync.RWMutex
	state   EngineState
	target  string
	started bool

	drainCtx    context.Context
	drainCancel context.CancelFunc

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopErr  error

	inFlight int64
}

// NewEngine creates an engine delivering through deliverer and reporting to
// observer. A nil observer is replaced with NopObserver. Options left at
// their zero value take package defaults; invalid options are rejected.
func NewEngine(opts Options, deliverer Deliverer, observer Observer) (*Engine, error) {
	if deliverer == nil {
		return nil, fmt.Errorf("shadow: deliverer is required")
	}

	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if observer == nil {
		observer = NopObserver{}
	}

	drainCtx, drainCancel := context.WithCancel(context.Background())

	return &Engine{
		opts:        opts,
		queue:       NewQueue(opts.QueueCapacity, opts.OverflowPolicy),
		deliverer:   deliverer,
		observer:    observer,
		logger:      slog.Default().With("component", "shadow.engine"),
		state:       EngineStopped,
		target:      opts.TargetURL,
		drainCtx:    drainCtx,
		drainCancel: drainCancel,
	}, nil
}

// Start spawns the delivery workers and transitions the engine to Running.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("shadow: engine already started")
	}
	e.started = true
	e.state = EngineStarting
	e.mu.Unlock()

	e.observer.ObserveState(EngineStarting)

	for i := 0; i < e.opts.WorkerCount; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}

	e.mu.Lock()
	e.state = EngineRunning
	e.mu.Unlock()

	e.observer.ObserveState(EngineRunning)
	e.logger.Info("shadow engine started",
		"target", e.Target(),
		"workers", e.opts.WorkerCount,
		"queue_capacity", e.opts.QueueCapacity,
		"overflow_policy", string(e.opts.OverflowPolicy),
		"max_attempts", e.opts.MaxAttempts,
	)

	return nil
}

// Submit clones req into a task bound for the current target and admits it
// to the queue without blocking. It reports whether the clone was accepted.
// Refused or evicted clones are recorded as dropped outcomes; nothing here
// ever surfaces to the primary path.
func (e *Engine) Submit(req *proxy.Request) bool {
	task := NewTask(req, e.Target())

	evicted, err := e.queue.Enqueue(task)
	if evicted != nil {
		e.recordDropped(evicted, &QueueFullError{Capacity: e.opts.QueueCapacity})
	}
	if err != nil {
		e.recordDropped(task, err)
		return false
	}
	return true
}

// Stop drains the engine. Admission closes immediately, backlog that never
// reached a worker is recorded as cancelled, and in-flight deliveries get
// until ctx's deadline (or the configured grace period when ctx has none)
// before the drain context force-aborts them. Stop is idempotent; concurrent
// calls return the first call's result.
func (e *Engine) Stop(ctx context.Context) error {
	e.stopOnce.Do(func() {
		e.stopErr = e.stop(ctx)
	})
	return e.stopErr
}

// State returns the engine's lifecycle state.
func (e *Engine) State() EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// QueueState returns a snapshot of the clone queue.
func (e *Engine) QueueState() QueueState {
	return e.queue.State()
}

// InFlight returns the number of deliveries currently being attempted. It
// never exceeds the configured worker count.
func (e *Engine) InFlight() int64 {
	return atomic.LoadInt64(&e.inFlight)
}

// Target returns the shadow base URL applied to newly submitted clones.
func (e *Engine) Target() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.target
}

// SetTarget retargets subsequently submitted clones. Clones already queued
// keep the target they were stamped with at admission time.
func (e *Engine) SetTarget(targetURL string) error {
	if targetURL == "" {
		return fmt.Errorf("shadow: target URL is required")
	}

	e.mu.Lock()
	previous := e.target
	e.target = targetURL
	e.mu.Unlock()

	if previous != targetURL {
		e.logger.Info("shadow target changed", "previous", previous, "target", targetURL)
	}
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	e.mu.Lock()
	wasRunning := e.started
	if wasRunning {
		e.state = EngineDraining
	}
	e.mu.Unlock()

	if wasRunning {
		e.observer.ObserveState(EngineDraining)
		e.logger.Info("shadow engine draining", "queued", e.queue.Len(), "in_flight", e.InFlight())
	}

	// Admission closes first so producers fail fast, then the backlog that
	// will never reach a worker is accounted for.
	e.queue.Close()
	flushed := e.queue.Flush()
	for _, t := range flushed {
		e.observer.ObserveOutcome(Outcome{
			RequestID: t.RequestID,
			Target:    t.Target,
			Status:    StatusCancelled,
			Err:       &CancelledError{RequestID: t.RequestID},
			QueuedFor: time.Since(t.EnqueuedAt),
		})
	}

	var err error
	if wasRunning {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.opts.ShutdownGracePeriod)
			defer cancel()
		}

		done := make(chan struct{})
		go func() {
			e.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			forced := e.InFlight()
			e.drainCancel()
			<-done
			if forced > 0 {
				err = fmt.Errorf("shadow: grace period expired, cancelled %d in-flight task(s)", forced)
			}
		}
	}
	e.drainCancel()

	e.mu.Lock()
	e.state = EngineStopped
	e.mu.Unlock()

	if wasRunning {
		e.observer.ObserveState(EngineStopped)
	}
	e.logger.Info("shadow engine stopped", "cancelled_backlog", len(flushed))

	return err
}

// worker loops dequeue, deliver, classify, emit until the queue is closed
// and drained.
func (e *Engine) worker(id int) {
	defer e.wg.Done()

	logger := e.logger.With("worker", id)
	logger.Debug("shadow worker started")

	for {
		task, ok := e.queue.Dequeue()
		if !ok {
			logger.Debug("shadow worker exiting")
			return
		}
		e.process(task)
	}
}

// process runs one task to its terminal outcome. Failures, timeouts and
// panics stay local to this task; nothing propagates to other workers or the
// primary path.
func (e *Engine) process(task *Task) {
	atomic.AddInt64(&e.inFlight, 1)
	defer atomic.AddInt64(&e.inFlight, -1)

	queuedFor := time.Since(task.EnqueuedAt)
	emitted := false

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("shadow delivery panicked",
				"request_id", task.RequestID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			if !emitted {
				e.observer.ObserveOutcome(Outcome{
					RequestID: task.RequestID,
					Target:    task.Target,
					Status:    StatusFailed,
					Attempts:  task.Attempts,
					Err:       fmt.Errorf("shadow delivery panicked: %v", r),
					QueuedFor: queuedFor,
				})
			}
		}
	}()

	// The deadline covers the task's whole attempt budget. Backoff sleeps
	// that push past it end the retry loop early.
	task.Deadline = time.Now().Add(time.Duration(e.opts.MaxAttempts) * e.opts.AttemptTimeout)

	var (
		statusCode int
		lastErr    error
		duration   time.Duration
	)

	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			if time.Now().After(task.Deadline) {
				break
			}
			if !e.backoff(attempt - 1) {
				break
			}
		}

		task.Attempts = attempt

		attemptCtx, cancel := context.WithTimeout(e.drainCtx, e.opts.AttemptTimeout)
		started := time.Now()
		statusCode, lastErr = e.deliverer.Deliver(attemptCtx, task)
		duration = time.Since(started)
		cancel()

		if lastErr == nil {
			break
		}
		if e.drainCtx.Err() != nil {
			break
		}
	}

	outcome := Outcome{
		RequestID: task.RequestID,
		Target:    task.Target,
		Attempts:  task.Attempts,
		QueuedFor: queuedFor,
		Duration:  duration,
	}

	switch {
	case lastErr == nil:
		outcome.Status = StatusDelivered
		outcome.StatusCode = statusCode
	case e.drainCtx.Err() != nil:
		outcome.Status = StatusCancelled
		outcome.Err = &CancelledError{RequestID: task.RequestID}
	case errors.Is(lastErr, context.DeadlineExceeded):
		outcome.Status = StatusTimedOut
		outcome.Err = &DeliveryError{Target: task.Target, Attempts: task.Attempts, Err: lastErr}
	default:
		outcome.Status = StatusFailed
		outcome.Err = &DeliveryError{Target: task.Target, Attempts: task.Attempts, Err: lastErr}
	}

	emitted = true
	e.observer.ObserveOutcome(outcome)

	switch outcome.Status {
	case StatusDelivered:
		e.logger.Debug("shadow clone delivered",
			"request_id", task.RequestID,
			"status_code", outcome.StatusCode,
			"attempts", outcome.Attempts,
			"duration_ms", outcome.Duration.Milliseconds(),
		)
	case StatusCancelled:
		e.logger.Debug("shadow clone cancelled", "request_id", task.RequestID)
	default:
		e.logger.Warn("shadow delivery failed",
			"request_id", task.RequestID,
			"target", task.Target,
			"status", string(outcome.Status),
			"attempts", outcome.Attempts,
			"error", outcome.Err,
		)
	}
}

// backoff waits before retry number n. It returns false when the drain
// context was cancelled during the wait.
func (e *Engine) backoff(n int) bool {
	delay := time.Duration(math.Pow(2, float64(n-1))) * retryBackoffBase

	select {
	case <-e.drainCtx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

// recordDropped emits a dropped outcome for a clone that never reached a
// worker.
func (e *Engine) recordDropped(t *Task, cause error) {
	e.observer.ObserveOutcome(Outcome{
		RequestID: t.RequestID,
		Target:    t.Target,
		Status:    StatusDropped,
		Err:       cause,
		QueuedFor: time.Since(t.EnqueuedAt),
	})
	e.logger.Debug("shadow clone dropped", "request_id", t.RequestID, "cause", cause)
}
