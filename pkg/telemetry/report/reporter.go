package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"umbra-hq/umbra/pkg/config"
	"umbra-hq/umbra/pkg/shadow"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Reporter logs a periodic summary of shadow delivery outcomes on a cron
// schedule. It implements shadow.Observer: outcomes are tallied as they
// arrive and flushed into a single structured log line per window, so an
// operator can follow divergence trends from the logs alone without a
// metrics backend.
type Reporter struct {
	config  *config.ReportConfig
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool

	// tally accumulates outcomes for the current window
	tally tally

	// windowStart is the start of the current window, in Unix nanoseconds
	windowStart atomic.Int64

	// state is the last observed engine lifecycle state
	state atomic.Value
}

var _ shadow.Observer = (*Reporter)(nil)

// tally holds per-window outcome counters.
type tally struct {
	delivered atomic.Int64
	failed    atomic.Int64
	timedOut  atomic.Int64
	dropped   atomic.Int64
	cancelled atomic.Int64
	attempts  atomic.Int64
}

// NewReporter creates a new outcome reporter. If logger is nil, the default
// logger is used.
func NewReporter(cfg *config.ReportConfig, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Reporter{
		config: cfg,
		cron:   cron.New(),
		logger: logger.With("component", "shadow.reporter"),
	}
	r.windowStart.Store(time.Now().UnixNano())
	r.state.Store(shadow.EngineStopped)

	return r
}

// ObserveOutcome tallies a terminal task outcome into the current window.
// It is part of the shadow.Observer implementation.
func (r *Reporter) ObserveOutcome(o shadow.Outcome) {
	switch o.Status {
	case shadow.StatusDelivered:
		r.tally.delivered.Add(1)
	case shadow.StatusFailed:
		r.tally.failed.Add(1)
	case shadow.StatusTimedOut:
		r.tally.timedOut.Add(1)
	case shadow.StatusDropped:
		r.tally.dropped.Add(1)
	case shadow.StatusCancelled:
		r.tally.cancelled.Add(1)
	}

	r.tally.attempts.Add(int64(o.Attempts))
}

// ObserveState records the engine lifecycle state for the next report. It
// is part of the shadow.Observer implementation.
func (r *Reporter) ObserveState(state shadow.EngineState) {
	r.state.Store(state)
}

// Start begins scheduled reporting based on the configured cron expression.
// Standard five-field expressions and the "@every" descriptor syntax are
// both accepted.
//
// Common expressions:
//   - "@every 1m"    - Once a minute
//   - "*/5 * * * *"  - Every five minutes
//   - "0 * * * *"    - On the hour
//
// If the report is disabled, Start does nothing.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.config.Enabled {
		r.logger.Info("outcome report disabled, skipping scheduler")
		return nil
	}

	schedule := r.config.Schedule
	if schedule == "" {
		schedule = config.DefaultReportSchedule
	}

	// Validate cron expression
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", schedule, err)
	}

	if _, err := r.cron.AddFunc(schedule, r.emit); err != nil {
		return fmt.Errorf("failed to schedule outcome report: %w", err)
	}

	r.windowStart.Store(time.Now().UnixNano())
	r.cron.Start()
	r.running = true

	r.logger.Info("outcome reporter started",
		"schedule", schedule,
	)

	// Wait for context cancellation in background
	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// emit flushes the current window into one structured log line and starts
// the next window.
func (r *Reporter) emit() {
	start := time.Unix(0, r.windowStart.Swap(time.Now().UnixNano()))

	delivered := r.tally.delivered.Swap(0)
	failed := r.tally.failed.Swap(0)
	timedOut := r.tally.timedOut.Swap(0)
	dropped := r.tally.dropped.Swap(0)
	cancelled := r.tally.cancelled.Swap(0)
	attempts := r.tally.attempts.Swap(0)

	total := delivered + failed + timedOut + dropped + cancelled

	args := []any{
		"report_id", uuid.New().String(),
		"window_start", start.UTC().Format(time.RFC3339),
		"engine_state", r.state.Load(),
		"delivered", delivered,
		"failed", failed,
		"timed_out", timedOut,
		"dropped", dropped,
		"cancelled", cancelled,
		"attempts", attempts,
		"total", total,
	}

	if total > 0 {
		r.logger.Info("shadow outcome report", args...)
	} else {
		r.logger.Debug("shadow outcome report, no traffic in window", args...)
	}
}

// Stop stops the scheduler and waits for any running report to complete.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil && r.running {
		ctx := r.cron.Stop()
		<-ctx.Done() // Wait for a running report to finish
		r.running = false
		r.logger.Info("outcome reporter stopped")
	}
}

// IsRunning returns true if the reporter is running.
func (r *Reporter) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.running
}

// NextRun returns the next scheduled report time.
func (r *Reporter) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron == nil {
		return nil
	}

	entries := r.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
